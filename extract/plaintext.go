// Package extract implements the format extractors of §4.2: pull a stream
// of weir.RawUri values out of HTML, Markdown, CSS, and plain text input.
package extract

import (
	"regexp"
	"sync"

	"github.com/hueristiq/hq-go-url/extractor"

	"github.com/aofei/weir"
)

var (
	plaintextRegexOnce sync.Once
	plaintextRegex     *regexp.Regexp
)

// plaintextURLRegex lazily compiles the shared URL/email matcher built from
// hq-go-url's extractor, requiring a scheme or host so free-floating words
// are not mistaken for links (§4.2.4: "well-formed HTTP(S) URLs and email
// addresses using standard linkify heuristics").
func plaintextURLRegex() *regexp.Regexp {
	plaintextRegexOnce.Do(func() {
		plaintextRegex = extractor.NewExtractor(extractor.ExtractorWithHost()).CompileRegex()
	})
	return plaintextRegex
}

// Plaintext scans text for well-formed HTTP(S) URLs and email addresses and
// emits one RawUri per match, with no further filtering (filtering belongs
// to the URI filter, §4.4). startLine is the 1-based line number of text's
// first line, for callers embedding plaintext extraction within a larger
// document (e.g. the Markdown extractor's text events).
func Plaintext(text string, startLine int) []weir.RawUri {
	re := plaintextURLRegex()
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	out := make([]weir.RawUri, 0, len(locs))
	line := startLine
	lastEnd := 0
	for _, loc := range locs {
		line += countNewlines(text[lastEnd:loc[0]])
		lastEnd = loc[0]
		out = append(out, weir.NewRawUri(text[loc[0]:loc[1]], weir.Span{Line: line}))
	}
	return out
}

func countNewlines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
