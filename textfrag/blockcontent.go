package textfrag

import "strings"

// BlockContent is the streaming-accumulated textual content of one
// block-level HTML element (§3 Data Model). Visible is false once an
// inline style of "display:none" or "visibility:hidden" has been observed
// on the element or one of its ancestors.
type BlockContent struct {
	Words   []string
	Visible bool
}

// blockLevelTags is a non-exhaustive but representative set of block-level
// elements (§4.10). Verify does not consult it: it matches directives
// against one document-wide word sequence.
var blockLevelTags = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {},
	"h5": {}, "h6": {}, "pre": {}, "table": {}, "tr": {}, "td": {}, "th": {},
	"section": {}, "article": {}, "blockquote": {}, "ul": {}, "ol": {},
	"header": {}, "footer": {}, "main": {}, "aside": {}, "figure": {},
	"figcaption": {},
}

// isBlockLevel reports whether tag is one of blockLevelTags.
func isBlockLevel(tag string) bool {
	_, ok := blockLevelTags[strings.ToLower(tag)]
	return ok
}

// stylesHidden reports whether a "style" attribute value hides its element
// per the two properties §4.10 names.
func stylesHidden(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}

// splitWords segments text into the whole-word tokens directive matching
// operates on.
func splitWords(text string) []string {
	return strings.Fields(text)
}
