package extract

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/aofei/weir"
)

// MarkdownOptions toggles the caller-controlled extraction behaviors named
// in §4.2.2.
type MarkdownOptions struct {
	IncludeWikilinks bool
	HTMLOptions      HTMLOptions
}

// wikilinkPattern matches the `[[target]]` syntax (§4.2.2: "recognizes
// wiki-link syntax... when enabled").
var wikilinkPattern = regexp.MustCompile(`\[\[([^\]\[]+)\]\]`)

// Markdown walks source's goldmark AST event-by-event and emits the raw
// links named in §4.2.2: link/image destinations verbatim, text events
// through the plaintext linkifier, inline HTML delegated to the HTML
// extractor, code spans/blocks emitting nothing.
func Markdown(source []byte, opts MarkdownOptions) ([]weir.RawUri, error) {
	md := goldmark.New()
	reader := gmtext.NewReader(source)
	doc := md.Parser().Parse(reader)

	var out []weir.RawUri

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		line := 1

		switch node := n.(type) {
		case *ast.Link:
			out = append(out, weir.RawUri{Text: string(node.Destination), Element: "a", Attribute: "href", Span: weir.Span{Line: line}})
			return ast.WalkSkipChildren, nil

		case *ast.Image:
			out = append(out, weir.RawUri{Text: string(node.Destination), Element: "img", Attribute: "src", Span: weir.Span{Line: line}})
			return ast.WalkSkipChildren, nil

		case *ast.AutoLink:
			out = append(out, weir.RawUri{Text: string(node.URL(source)), Element: "a", Attribute: "href", Span: weir.Span{Line: line}})
			return ast.WalkSkipChildren, nil

		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock:
			return ast.WalkSkipChildren, nil

		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(source))
			}
			links, err := htmlFallback(buf.Bytes(), line, opts.HTMLOptions)
			if err != nil {
				// Supplemented feature 2: a malformed inline-HTML
				// sub-extraction still gets linkified as plain
				// text rather than silently dropping the block.
				out = append(out, Plaintext(buf.String(), line)...)
			} else {
				out = append(out, links...)
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				buf.Write(lines.At(i).Value(source))
			}
			links, err := htmlFallback(buf.Bytes(), line, opts.HTMLOptions)
			if err != nil {
				out = append(out, Plaintext(buf.String(), line)...)
			} else {
				out = append(out, links...)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if parent, ok := n.Parent().(*ast.CodeSpan); ok && parent != nil {
				return ast.WalkContinue, nil
			}
			out = append(out, Plaintext(string(node.Segment.Value(source)), line)...)
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if opts.IncludeWikilinks {
		out = append(out, wikilinks(source)...)
	}

	return out, nil
}

// htmlFallback runs raw through the HTML extractor for inline/block HTML
// delegation (§4.2.2).
func htmlFallback(raw []byte, line int, opts HTMLOptions) ([]weir.RawUri, error) {
	res, err := HTML(bytes.NewReader(raw), opts)
	if err != nil {
		return nil, err
	}
	for i := range res.Links {
		res.Links[i].Span.Line += line - 1
	}
	return res.Links, nil
}

// wikilinks scans source for `[[target]]` syntax.
func wikilinks(source []byte) []weir.RawUri {
	matches := wikilinkPattern.FindAllSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]weir.RawUri, 0, len(matches))
	for _, m := range matches {
		line := 1 + bytes.Count(source[:m[0]], []byte("\n"))
		target := string(source[m[2]:m[3]])
		out = append(out, weir.RawUri{Text: target, Element: "wikilink", Span: weir.Span{Line: line}})
	}
	return out
}

