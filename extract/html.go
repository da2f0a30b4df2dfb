package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/aofei/weir"
)

// verbatimTags suppress link emission from their text content unless the
// caller opts in (§4.2.1 step 1).
var verbatimTags = map[string]struct{}{
	"pre": {}, "code": {}, "script": {}, "style": {},
}

// linkAttrs is the fixed table of (element, attribute) pairs that carry a
// link on any matching element (§4.2.1 step 2). An empty element name
// means the attribute counts on any element.
var linkAttrs = map[string]map[string]struct{}{
	"": {"href": {}, "src": {}, "cite": {}, "usemap": {}},
	"object":   {"data": {}},
	"video":    {"poster": {}},
	"audio":    {"src": {}},
	"body":     {"background": {}},
	"form":     {"action": {}},
	"input":    {"formaction": {}},
	"button":   {"formaction": {}},
	"img":      {"srcset": {}},
	"source":   {"srcset": {}},
	"applet":   {"codebase": {}},
	"blockquote": {"cite": {}},
	"del":      {"cite": {}},
	"ins":      {"cite": {}},
	"q":        {"cite": {}},
	"track":    {"src": {}},
}

// HTMLOptions toggles the caller-controlled extraction behaviors named in
// §4.2.1.
type HTMLOptions struct {
	// IncludeVerbatim emits links found inside <pre>/<code>/<script>/
	// <style> text content (normally suppressed).
	IncludeVerbatim bool
	// LinkifyText runs non-link-carrying text nodes and attribute values
	// through the plaintext linkifier when true; the zero value false
	// leaves them unscanned.
	LinkifyText bool
}

// HTMLResult is the HTML extractor's output: the raw links found, plus the
// set of element `id` values for fragment-existence verification (§4.2.1
// step 7, §4.8).
type HTMLResult struct {
	Links []weir.RawUri
	IDs   map[string]struct{}
}

// HTML streams r as HTML5 and extracts links per the seven rules of
// §4.2.1.
func HTML(r io.Reader, opts HTMLOptions) (HTMLResult, error) {
	res := HTMLResult{IDs: make(map[string]struct{})}

	tok := html.NewTokenizer(r)
	var verbatimStack []string
	line := 1

	for {
		tt := tok.Next()
		raw := tok.Raw()
		switch tt {
		case html.ErrorToken:
			err := tok.Err()
			if err == io.EOF {
				err = nil
			}
			return res, err

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tok.TagName()
			tag := string(name)
			attrs := readAttrs(tok, hasAttr)

			if id, ok := attrs["id"]; ok && id != "" {
				res.IDs[id] = struct{}{}
			}

			if tt == html.StartTagToken {
				if _, verbatim := verbatimTags[tag]; verbatim {
					verbatimStack = append(verbatimStack, tag)
				}
			}

			if !shouldSkipTag(tag, attrs) {
				res.Links = append(res.Links, linksFromTag(tag, attrs, line, opts)...)
			}

		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if len(verbatimStack) > 0 && verbatimStack[len(verbatimStack)-1] == tag {
				verbatimStack = verbatimStack[:len(verbatimStack)-1]
			}

		case html.TextToken:
			inVerbatim := len(verbatimStack) > 0
			if opts.LinkifyText && (!inVerbatim || opts.IncludeVerbatim) {
				res.Links = append(res.Links, Plaintext(string(tok.Text()), line)...)
			}
		}

		line += strings.Count(string(raw), "\n")
	}
}

// readAttrs drains every attribute of the current start tag into a map
// keyed by lowercase name.
func readAttrs(tok *html.Tokenizer, hasAttr bool) map[string]string {
	attrs := make(map[string]string)
	if !hasAttr {
		return attrs
	}
	for {
		key, val, more := tok.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
		if !more {
			break
		}
	}
	return attrs
}

// shouldSkipTag applies the exclusion rules of §4.2.1 step 3.
func shouldSkipTag(tag string, attrs map[string]string) bool {
	if rel, ok := attrs["rel"]; ok {
		relLower := strings.ToLower(rel)
		if strings.Contains(relLower, "nofollow") ||
			strings.Contains(relLower, "preconnect") ||
			strings.Contains(relLower, "dns-prefetch") {
			return true
		}
	}
	if _, ok := attrs["prefix"]; ok {
		return true
	}
	if tag == "link" {
		if _, disabled := attrs["disabled"]; disabled {
			return true
		}
		if href := attrs["href"]; strings.HasPrefix(href, "@") || strings.HasPrefix(href, "/@") {
			return true
		}
	}
	return false
}

// linksFromTag emits the RawUri values carried by one start tag's
// attributes, per §4.2.1 steps 2, 4, and 6.
func linksFromTag(tag string, attrs map[string]string, line int, opts HTMLOptions) []weir.RawUri {
	var out []weir.RawUri

	for attr, val := range attrs {
		if val == "" {
			continue
		}
		if !isLinkAttr(tag, attr) {
			if opts.LinkifyText {
				out = append(out, Plaintext(val, line)...)
			}
			continue
		}

		if attr == "srcset" {
			out = append(out, parseSrcset(val, tag, line)...)
			continue
		}

		if attr != "href" && looksLikeMailOrTel(val) {
			// §4.2.1 step 6: mailto/tel only accepted via href.
			continue
		}

		out = append(out, weir.RawUri{Text: val, Element: tag, Attribute: attr, Span: weir.Span{Line: line}})
	}

	return out
}

// isLinkAttr reports whether (tag, attr) is a known link-carrying slot.
func isLinkAttr(tag, attr string) bool {
	if _, ok := linkAttrs[""][attr]; ok {
		return true
	}
	if m, ok := linkAttrs[tag]; ok {
		_, ok := m[attr]
		return ok
	}
	return false
}

// parseSrcset splits a srcset value into candidates and emits the URL
// (first whitespace-separated token) of each (§4.2.1 step 2), subject to the
// same mail/tel-token suppression as every other non-href attribute (step 6):
// a high-DPI filename like "v2@1.5x.png" must not be mistaken for a mailbox.
func parseSrcset(val, tag string, line int) []weir.RawUri {
	var out []weir.RawUri
	for _, candidate := range strings.Split(val, ",") {
		fields := strings.Fields(strings.TrimSpace(candidate))
		if len(fields) == 0 {
			continue
		}
		if looksLikeMailOrTel(fields[0]) {
			continue
		}
		out = append(out, weir.RawUri{Text: fields[0], Element: tag, Attribute: "srcset", Span: weir.Span{Line: line}})
	}
	return out
}

// looksLikeMailOrTel is a light heuristic distinguishing "user@host"-shaped
// attribute values (to be suppressed outside href) from ordinary URLs.
func looksLikeMailOrTel(val string) bool {
	return strings.HasPrefix(val, "mailto:") || strings.HasPrefix(val, "tel:") ||
		(!strings.Contains(val, "://") && strings.Contains(val, "@") && !strings.Contains(val, "/"))
}
