package extract

import (
	"regexp"

	"github.com/aofei/weir"
)

// cssURLPattern matches CSS `url(...)` functional notation, quoted or
// bare, per §4.2.3. The quoted alternatives are listed first so Go's
// leftmost-first regexp engine prefers them over the bare alternative when
// both could match the same position (overlapping quote characters inside
// an unquoted value).
var cssURLPattern = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^'"\)\s][^\)]*))\s*\)`)

// CSS scans text for `url(...)` references and emits one RawUri per
// non-empty match, each tagged element="style", attribute="url" (§4.2.3).
func CSS(text string, startLine int) []weir.RawUri {
	matches := cssURLPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]weir.RawUri, 0, len(matches))
	line := startLine
	lastEnd := 0
	for _, m := range matches {
		url := firstNonEmptyGroup(text, m)
		line += countNewlines(text[lastEnd:m[0]])
		lastEnd = m[0]
		if url == "" {
			continue
		}
		out = append(out, weir.RawUri{
			Text:      url,
			Element:   "style",
			Attribute: "url",
			Span:      weir.Span{Line: line},
		})
	}
	return out
}

// firstNonEmptyGroup returns the text of the first captured, non-empty
// submatch group among the three quote-style alternatives.
func firstNonEmptyGroup(text string, m []int) string {
	for g := 1; g <= 3; g++ {
		lo, hi := m[2*g], m[2*g+1]
		if lo >= 0 && hi > lo {
			return text[lo:hi]
		}
	}
	return ""
}
