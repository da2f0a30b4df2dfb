package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSSQuotedURL(t *testing.T) {
	links := CSS(`.bg { background: url("images/bg.png"); }`, 1)
	assert.Len(t, links, 1)
	assert.Equal(t, "images/bg.png", links[0].Text)
	assert.Equal(t, "style", links[0].Element)
	assert.Equal(t, "url", links[0].Attribute)
}

func TestCSSSingleQuotedURL(t *testing.T) {
	links := CSS(`@font-face { src: url('/fonts/a.woff2'); }`, 1)
	assert.Len(t, links, 1)
	assert.Equal(t, "/fonts/a.woff2", links[0].Text)
}

func TestCSSBareURL(t *testing.T) {
	links := CSS(`div { background: url(bg.png); }`, 1)
	assert.Len(t, links, 1)
	assert.Equal(t, "bg.png", links[0].Text)
}

func TestCSSMultipleURLsTrackLines(t *testing.T) {
	text := "a { background: url(one.png); }\nb { background: url(two.png); }"
	links := CSS(text, 1)
	assert.Len(t, links, 2)
	assert.Equal(t, "one.png", links[0].Text)
	assert.Equal(t, 1, links[0].Span.Line)
	assert.Equal(t, "two.png", links[1].Text)
	assert.Equal(t, 2, links[1].Span.Line)
}

func TestCSSNoMatches(t *testing.T) {
	links := CSS("div { color: red; }", 1)
	assert.Nil(t, links)
}
