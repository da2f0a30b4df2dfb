package weir

import "net/url"

// RequestBuilder resolves a stream of RawUri values into deduplicated
// Request values (§4.3). One builder is used per input source, since each
// source carries its own BaseInfo.
type RequestBuilder struct {
	source      string
	base        BaseInfo
	rootDir     *url.URL
	docURL      *URI // the containing document's own URI, for fragment-only refs
	credentials *CredentialMatcher

	seen map[string]struct{}
}

// NewRequestBuilder constructs a RequestBuilder for one input source.
// docURL is the fully-resolved URI of the document itself (used to anchor
// fragment-only references); it may be nil for sources with no address of
// their own (e.g. stdin).
func NewRequestBuilder(source string, base BaseInfo, rootDir *url.URL, docURL *URI, credentials *CredentialMatcher) *RequestBuilder {
	return &RequestBuilder{
		source:      source,
		base:        base,
		rootDir:     rootDir,
		docURL:      docURL,
		credentials: credentials,
		seen:        make(map[string]struct{}),
	}
}

// Build resolves raw into a Request, or returns (Request{}, false, nil)
// when raw is a duplicate of one already built by this builder (dedup is
// local to one builder's lifetime; cross-source dedup happens one layer up
// when the caller merges per-source dedup sets, since builder.go does not
// own the global URI-seen set described in §4.3 Orchestrator hookup).
func (b *RequestBuilder) Build(raw RawUri) (Request, bool, error) {
	uri, err := b.resolve(raw.Text)
	if err != nil {
		return Request{}, false, err
	}

	key := uri.String()
	if _, dup := b.seen[key]; dup {
		return Request{}, false, nil
	}
	b.seen[key] = struct{}{}

	req := Request{
		URI:       uri,
		Source:    b.source,
		Element:   raw.Element,
		Attribute: raw.Attribute,
	}
	if b.credentials != nil {
		req.Credentials = b.credentials.Match(uri)
	}
	return req, true, nil
}

// resolve handles the "fragment-only reference" special case of §4.3: a
// bare "#anchor" carries no scheme and no host, so it resolves against the
// containing document's own URL with the fragment replaced, rather than
// through the normal base-resolution dispatch. Anchors with neither a base
// nor a root directory are dropped (return an error the caller treats as
// "skip this raw uri").
func (b *RequestBuilder) resolve(text string) (*URI, error) {
	if len(text) > 0 && text[0] == '#' {
		if b.docURL == nil {
			return nil, &CheckError{Kind: KindRelativeWithoutBase}
		}
		return b.docURL.WithFragment(text[1:]), nil
	}
	return b.base.ParseURLText(text, b.rootDir)
}
