package textfrag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySimpleStartMatch(t *testing.T) {
	doc := `<html><body><p>The quick brown fox jumps</p></body></html>`
	fd, err := ParseFragment(":~:text=quick brown")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "quick brown", fd.Directives[0].MatchedText)
}

func TestVerifyStartEndRange(t *testing.T) {
	doc := `<html><body><p>alpha beta gamma delta epsilon</p></body></html>`
	fd, err := ParseFragment(":~:text=beta,delta")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "beta gamma delta", fd.Directives[0].MatchedText)
}

func TestVerifyMissingTextFails(t *testing.T) {
	doc := `<html><body><p>nothing relevant here</p></body></html>`
	fd, err := ParseFragment(":~:text=unrelated phrase")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, fd.IncompleteDirectives())
}

func TestVerifySpansBlockBoundaries(t *testing.T) {
	doc := `<html><body><p>end of one paragraph</p><p>start of the next</p></body></html>`
	fd, err := ParseFragment(":~:text=paragraph,start")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.True(t, ok, "a range may legitimately span block boundaries")
}

func TestVerifySkipsHiddenText(t *testing.T) {
	doc := `<html><body><p style="display:none">secret phrase</p><p>visible text</p></body></html>`
	fd, err := ParseFragment(":~:text=secret phrase")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.False(t, ok, "text under display:none must not be matched")
}

func TestVerifyPrefixRequiresAdjacency(t *testing.T) {
	doc := `<html><body><p>context marker hello world</p></body></html>`
	fd, err := ParseFragment(":~:text=marker-,hello")
	assert.NoError(t, err)

	ok, err := Verify(strings.NewReader(doc), fd)
	assert.NoError(t, err)
	assert.True(t, ok, "start must be found adjacent to the matched prefix")
}

func TestCollectVisibleWordsOrdersByDocument(t *testing.T) {
	words, err := collectVisibleWords(strings.NewReader(`<div>one <span>two</span> three</div>`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, words)
}
