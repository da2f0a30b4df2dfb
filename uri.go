package weir

import (
	"net"
	"net/mail"
	"net/url"
	"strings"
)

// Scheme is the set of schemes a URI can carry.
type Scheme uint8

// Recognized schemes.
const (
	SchemeHTTP Scheme = iota
	SchemeHTTPS
	SchemeMail
	SchemeFile
	SchemeTel
	SchemeOther
)

// String returns the textual name of s.
func (s Scheme) String() string {
	switch s {
	case SchemeHTTP:
		return "http"
	case SchemeHTTPS:
		return "https"
	case SchemeMail:
		return "mailto"
	case SchemeFile:
		return "file"
	case SchemeTel:
		return "tel"
	default:
		return "other"
	}
}

// IPClass categorizes the host of a URI when it is a literal IP address.
type IPClass uint8

// IP classes recognized by the filter (§4.4).
const (
	IPNone IPClass = iota
	IPLoopback
	IPPrivate
	IPLinkLocal
	IPPublic
)

// URI is a normalized union of http/https URLs, mailto addresses, file
// URLs, and tel numbers, as described in §3 of the design. It is the
// in-memory representation every extractor, filter, and checker agrees on.
type URI struct {
	raw    string
	scheme Scheme

	// url is non-nil for any scheme that "can be a base" (http, https,
	// file). It is nil for mailto/tel, which cannot be split into an
	// origin+path pair.
	url *url.URL

	// mailAddress holds the normalized mailbox for SchemeMail.
	mailAddress string

	// telNumber holds the raw number for SchemeTel.
	telNumber string
}

// ParseURI parses s into a URI, choosing the mailbox production over the
// generic URL parser per §4.1: if s looks like an RFC 5322 mailbox (with or
// without a leading "mailto:"), it is normalized to a mailto URI; otherwise
// it is handed to the standard URL parser.
func ParseURI(s string) (*URI, error) {
	if looksLikeMailbox(s) {
		return parseMailURI(s)
	}

	if strings.HasPrefix(s, "tel:") {
		return &URI{raw: s, scheme: SchemeTel, telNumber: strings.TrimPrefix(s, "tel:")}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
	}
	if u.Host == "" && u.Scheme != "" && u.Scheme != "file" {
		return nil, &CheckError{Kind: KindURLEmptyHost}
	}

	u.Host = strings.ToLower(u.Host)

	uri := &URI{raw: s, url: u}
	switch strings.ToLower(u.Scheme) {
	case "http":
		uri.scheme = SchemeHTTP
	case "https":
		uri.scheme = SchemeHTTPS
	case "file":
		uri.scheme = SchemeFile
	case "mailto":
		return parseMailURI(s)
	case "tel":
		uri.scheme = SchemeTel
		uri.telNumber = u.Opaque
	default:
		uri.scheme = SchemeOther
	}
	return uri, nil
}

// looksLikeMailbox reports whether s is an RFC 5322 mailbox, with or
// without a "mailto:" prefix, rather than a generic URL. A bare address
// ("user@example.com") has no scheme at all, so it would otherwise fail
// generic URL parsing or be mis-split on '@' as userinfo.
func looksLikeMailbox(s string) bool {
	stripped := strings.TrimPrefix(s, "mailto:")
	if stripped == s && !strings.Contains(s, "@") {
		return false
	}
	if strings.Contains(stripped, "://") {
		return false
	}
	_, err := mail.ParseAddress(stripQueryHints(stripped))
	return err == nil
}

// stripQueryHints removes the mail-client hint query ("?subject=...") a
// mailto URI may carry; those are not part of the address and must not be
// handed to the RFC 5322 parser (supplemented feature, SPEC_FULL §C.3).
func stripQueryHints(addr string) string {
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		return addr[:i]
	}
	return addr
}

func parseMailURI(s string) (*URI, error) {
	addr := strings.TrimPrefix(s, "mailto:")
	mailbox := stripQueryHints(addr)
	parsed, err := mail.ParseAddress(mailbox)
	if err != nil {
		return nil, &CheckError{Kind: KindURLMalformed, Cause: err}
	}
	return &URI{
		raw:         s,
		scheme:      SchemeMail,
		mailAddress: parsed.Address,
	}, nil
}

// Scheme returns the normalized scheme of u.
func (u *URI) Scheme() Scheme { return u.scheme }

// String returns the canonical textual form of u.
func (u *URI) String() string {
	switch u.scheme {
	case SchemeMail:
		return "mailto:" + u.mailAddress
	case SchemeTel:
		return "tel:" + u.telNumber
	default:
		if u.url != nil {
			return u.url.String()
		}
		return u.raw
	}
}

// CanBeABase reports whether u splits into an origin+path pair. mailto and
// tel URIs cannot; http(s) and file URIs can (§3 invariant).
func (u *URI) CanBeABase() bool {
	return u.scheme == SchemeHTTP || u.scheme == SchemeHTTPS || u.scheme == SchemeFile
}

// Domain returns the lowercase hostname, or "" when the URI has none (mail,
// tel, or a bare-IP host).
func (u *URI) Domain() string {
	if u.url == nil {
		return ""
	}
	if net.ParseIP(u.url.Hostname()) != nil {
		return ""
	}
	return u.url.Hostname()
}

// HostIP returns the parsed IP and true when the URI's host is a literal
// IPv4 or IPv6 address.
func (u *URI) HostIP() (net.IP, bool) {
	if u.url == nil {
		return nil, false
	}
	ip := net.ParseIP(u.url.Hostname())
	return ip, ip != nil
}

// Host returns the raw (lowercased) host component, textual IP or domain.
func (u *URI) Host() string {
	if u.url == nil {
		return ""
	}
	return u.url.Hostname()
}

// Path returns the URI's path.
func (u *URI) Path() string {
	if u.url == nil {
		return ""
	}
	return u.url.Path
}

// PathSegments iterates over the non-empty slash-delimited segments of the
// URI's path.
func (u *URI) PathSegments() []string {
	p := u.Path()
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Fragment returns the URI's fragment (without the leading '#').
func (u *URI) Fragment() string {
	if u.url == nil {
		return ""
	}
	return u.url.Fragment
}

// WithFragment returns a copy of u with its fragment replaced.
func (u *URI) WithFragment(fragment string) *URI {
	if u.url == nil {
		return u
	}
	clone := *u.url
	clone.Fragment = fragment
	return &URI{raw: clone.String(), scheme: u.scheme, url: &clone}
}

// MailAddress returns the normalized mailbox for a SchemeMail URI.
func (u *URI) MailAddress() string { return u.mailAddress }

// TelNumber returns the raw number for a SchemeTel URI.
func (u *URI) TelNumber() string { return u.telNumber }

// IsMail reports whether u is a mailto URI.
func (u *URI) IsMail() bool { return u.scheme == SchemeMail }

// IsFile reports whether u is a file URI.
func (u *URI) IsFile() bool { return u.scheme == SchemeFile }

// IsTel reports whether u is a tel URI.
func (u *URI) IsTel() bool { return u.scheme == SchemeTel }

// IPClass classifies u's host, for the IP-policy steps of the URI filter
// (§4.4 steps 2-4).
func (u *URI) IPClass() IPClass {
	ip, ok := u.HostIP()
	if !ok {
		if u.Host() == "localhost" {
			return IPLoopback
		}
		return IPNone
	}
	switch {
	case ip.IsLoopback():
		return IPLoopback
	case isPrivateIP(ip):
		return IPPrivate
	case ip.IsLinkLocalUnicast():
		return IPLinkLocal
	default:
		return IPPublic
	}
}

// private IPv4/IPv6 ranges per RFC 1918 and fc00::/7 (§4.4 step 3).
var privateCIDRs = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
)

func isPrivateIP(ip net.IP) bool {
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// HostKey returns the lowercased hostname or textual IP used to key the
// per-host lane map (§3 HostKey, §4.6).
func (u *URI) HostKey() string {
	return strings.ToLower(u.Host())
}

// resolveReference joins u (used as a base) with ref the way url.URL.
// ResolveReference does, but preserves u's scheme when ref is
// scheme-relative ("//host/path"), matching §4.1's handling of
// scheme-relative links.
func (u *URI) resolveReference(ref *url.URL) *url.URL {
	resolved := u.url.ResolveReference(ref)
	return resolved
}
