package weir

import (
	"net/url"
	"strings"
)

// baseKind tags the three BaseInfo variants of §3.
type baseKind uint8

const (
	baseNone baseKind = iota
	baseNoRoot
	baseFull
)

// BaseInfo describes what relative-link resolution an input source
// supports (§3). Use the NewBaseInfo* constructors rather than building
// one by hand; the zero value is BaseNone.
type BaseInfo struct {
	kind    baseKind
	url     *url.URL // NoRoot: the base URL. Full: the origin/root URL.
	subpath string   // Full only: where the current document lives under url.
}

// NewBaseNone returns the BaseInfo variant under which only fully-qualified
// URLs parse.
func NewBaseNone() BaseInfo { return BaseInfo{kind: baseNone} }

// NewBaseNoRoot returns the BaseInfo variant in which locally-relative
// links resolve against base, but root-relative links fail.
func NewBaseNoRoot(base *url.URL) BaseInfo {
	return BaseInfo{kind: baseNoRoot, url: base}
}

// NewBaseFull returns the BaseInfo variant in which both locally- and
// root-relative links resolve: origin is used as the filesystem root for
// root-relative references, and subpath locates the current document
// within it.
func NewBaseFull(origin *url.URL, subpath string) BaseInfo {
	return BaseInfo{kind: baseFull, url: origin, subpath: subpath}
}

// FromSourceURL constructs the BaseInfo implied by an input source's own
// URL, promoting a file-scheme source to Full when rootDir is supplied
// (§3: "the file: scheme yields NoRoot unless a root directory is
// supplied, which promotes to Full").
func FromSourceURL(source *url.URL, rootDir *url.URL) BaseInfo {
	if source == nil {
		if rootDir != nil {
			return NewBaseFull(rootDir, "")
		}
		return NewBaseNone()
	}
	if strings.EqualFold(source.Scheme, "file") && rootDir != nil {
		subpath := strings.TrimPrefix(source.Path, rootDir.Path)
		return NewBaseFull(rootDir, subpath)
	}
	return NewBaseNoRoot(source)
}

// isRootRelative reports whether text is a root-relative link ("/foo") as
// opposed to scheme-relative ("//host/foo").
func isRootRelative(text string) bool {
	return strings.HasPrefix(text, "/") && !strings.HasPrefix(text, "//")
}

// ParseURLText resolves link text against b, per the dispatch table of
// §4.1 and §9 ("represent this with a function table or dispatch method on
// BaseInfo"). rootDirOverride, when non-nil, causes None and file-scheme
// Full bases to behave as if their origin were the override, but only for
// root-relative text (§4.1).
func (b BaseInfo) ParseURLText(text string, rootDirOverride *url.URL) (*URI, error) {
	if u, err := url.Parse(text); err == nil && u.IsAbs() {
		return ParseURI(text)
	}

	if isRootRelative(text) {
		return b.resolveRootRelative(text, rootDirOverride)
	}

	if strings.HasPrefix(text, "//") {
		return b.resolveSchemeRelative(text)
	}

	switch b.kind {
	case baseNone:
		return nil, &CheckError{Kind: KindRelativeWithoutBase}
	case baseNoRoot:
		joined, err := b.url.Parse(text)
		if err != nil {
			return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
		}
		return urlToURI(joined)
	case baseFull:
		docBase, err := b.url.Parse(b.subpath)
		if err != nil {
			return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
		}
		joined, err := docBase.Parse(text)
		if err != nil {
			return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
		}
		return urlToURI(joined)
	}
	return nil, &CheckError{Kind: KindRelativeWithoutBase}
}

func (b BaseInfo) resolveRootRelative(text string, rootDirOverride *url.URL) (*URI, error) {
	origin := b.url
	kind := b.kind

	if rootDirOverride != nil && (kind == baseNone || (kind == baseFull && strings.EqualFold(originScheme(b.url), "file"))) {
		origin = rootDirOverride
		kind = baseFull
	}

	switch kind {
	case baseNone:
		return nil, &CheckError{Kind: KindRootRelativeWithoutRoot}
	case baseNoRoot:
		return nil, &CheckError{Kind: KindRootRelativeWithoutRoot}
	case baseFull:
		if strings.EqualFold(originScheme(origin), "file") {
			joined, err := origin.Parse("." + text)
			if err != nil {
				return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
			}
			return urlToURI(joined)
		}
		docBase, err := origin.Parse(b.subpath)
		if err != nil {
			return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
		}
		joined, err := docBase.Parse(text)
		if err != nil {
			return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
		}
		return urlToURI(joined)
	}
	return nil, &CheckError{Kind: KindRootRelativeWithoutRoot}
}

func (b BaseInfo) resolveSchemeRelative(text string) (*URI, error) {
	scheme := "https"
	if b.url != nil && b.url.Scheme != "" {
		scheme = b.url.Scheme
	}
	joined, err := url.Parse(scheme + ":" + text)
	if err != nil {
		return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
	}
	return urlToURI(joined)
}

func originScheme(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme
}

func urlToURI(u *url.URL) (*URI, error) {
	return ParseURI(u.String())
}
