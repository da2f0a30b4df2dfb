package weir

// Span locates a RawUri within its originating input: a 1-based line number
// and an optional 1-based column. Extractors keep spans stable across
// multi-line tokens by offsetting the line number by the number of
// linebreaks already consumed within the current token (§4.2.1).
type Span struct {
	Line   int
	Column int
	HasCol bool
}

// RawUri is an extractor-emitted, unresolved reference: text plus the
// element/attribute it was found on (when applicable) and its source span.
// It owns its text outright (no slice-of-input aliasing); the target
// language note in §9 calls this out explicitly.
type RawUri struct {
	Text      string
	Element   string
	Attribute string
	Span      Span
}

// NewRawUri builds a RawUri with no element/attribute context, as produced
// by the plaintext linkifier and the CSS extractor's generic match path.
func NewRawUri(text string, span Span) RawUri {
	return RawUri{Text: text, Span: span}
}
