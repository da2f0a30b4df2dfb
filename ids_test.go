package weir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanIDsCollectsIDAttributes(t *testing.T) {
	html := `<html><body><h1 id="top">Title</h1><p id="intro">Hello</p><div>no id</div></body></html>`
	ids, err := scanIDs(strings.NewReader(html))
	assert.NoError(t, err)
	assert.Contains(t, ids, "top")
	assert.Contains(t, ids, "intro")
	assert.Len(t, ids, 2)
}

func TestScanIDsEmptyDocument(t *testing.T) {
	ids, err := scanIDs(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestScanIDsSelfClosingTag(t *testing.T) {
	ids, err := scanIDs(strings.NewReader(`<br id="break"/>`))
	assert.NoError(t, err)
	assert.Contains(t, ids, "break")
}
