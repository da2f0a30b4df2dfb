package weir

import "regexp"

// exampleDomains are the catalog of known example/placeholder domains
// excluded by default (§4.4 step 7).
var exampleDomains = map[string]struct{}{
	"example.com": {},
	"example.org": {},
	"example.net": {},
	"example.edu": {},
}

// exampleTLDs are the reserved TLDs from the same catalog.
var exampleTLDs = []string{".test", ".example", ".invalid", ".localhost"}

// unsupportedHosts are known hosts that universally require auth or
// otherwise can never be validated by an unauthenticated fetch (§4.4
// step 8).
var unsupportedHosts = map[string]struct{}{}

// falsePositivePatterns are the fixed, built-in catalog of standards-body
// namespace URLs that look like links but are identifiers, not fetchable
// resources (§4.4 step 10).
var falsePositivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://www\.w3\.org/(1999/xhtml|1998/Math/MathML|2000/svg)$`),
	regexp.MustCompile(`^https?://ogp\.me/ns`),
	regexp.MustCompile(`^https?://schemas\.openxmlformats\.org/`),
	regexp.MustCompile(`^https?://purl\.org/dc/`),
	regexp.MustCompile(`/xmlrpc\.php$`),
}

// URIFilter is a pure function from a URI plus Config to an include/exclude
// verdict (§4.4). It holds no mutable state; IsExcluded is safe to call from any
// goroutine (P6: idempotent, depends only on its inputs).
type URIFilter struct {
	c *Config
}

// NewURIFilter builds a URIFilter bound to c.
func NewURIFilter(c *Config) *URIFilter {
	return &URIFilter{c: c}
}

// IsExcluded applies the ordered rule set of §4.4 and reports whether uri
// should be skipped.
func (f *URIFilter) IsExcluded(uri *URI) bool {
	c := f.c

	// 1. Scheme whitelist.
	if !f.schemeAllowed(uri) {
		return true
	}

	// 2. Loopback.
	if c.ExcludeLoopbackIPs && uri.IPClass() == IPLoopback {
		return true
	}

	// 3. Private.
	if c.ExcludePrivateIPs && uri.IPClass() == IPPrivate {
		return true
	}

	// 4. Link-local.
	if c.ExcludeLinkLocalIPs && uri.IPClass() == IPLinkLocal {
		return true
	}

	// 5. Mail opt-in.
	if uri.IsMail() && !c.IncludeMail {
		return true
	}

	// 6. tel always excluded.
	if uri.IsTel() {
		return true
	}

	// 7. Example domains, unless overridden.
	if !c.CheckExampleDomains && isExampleDomain(uri) {
		return true
	}

	// 8. Known unsupported hosts.
	if _, ok := unsupportedHosts[uri.HostKey()]; ok {
		return true
	}

	s := uri.String()

	// 9. Include overrides everything below.
	if matchesAny(c.IncludePatterns, s) {
		return false
	}

	// 10. Built-in false-positive catalog.
	for _, re := range falsePositivePatterns {
		if re.MatchString(s) {
			return true
		}
	}

	// 11. No configured exclude patterns -> include.
	if len(c.ExcludePatterns) == 0 && len(c.ExcludePathPatterns) == 0 {
		return false
	}

	// 12. Configured exclude patterns.
	if matchesAny(c.ExcludePatterns, s) || matchesAny(c.ExcludePathPatterns, uri.Path()) {
		return true
	}

	// 13. Otherwise include.
	return false
}

func (f *URIFilter) schemeAllowed(uri *URI) bool {
	if len(f.c.Schemes) == 0 {
		return true
	}
	for _, s := range f.c.Schemes {
		if s == uri.Scheme().String() {
			return true
		}
	}
	// mailto/tel are carried as pseudo-schemes distinct from the
	// http/https whitelist; their own steps (5, 6) govern them.
	return uri.IsMail() || uri.IsTel()
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func isExampleDomain(uri *URI) bool {
	d := uri.Domain()
	if d == "" {
		return false
	}
	if _, ok := exampleDomains[d]; ok {
		return true
	}
	for _, tld := range exampleTLDs {
		if len(d) >= len(tld) && d[len(d)-len(tld):] == tld {
			return true
		}
	}
	return false
}
