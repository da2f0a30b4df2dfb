package weir

// Credentials is a basic-auth username/password pair attached to a Request
// when its URI matched a configured host-pattern (§4.3, §6 basic_auth).
type Credentials struct {
	Username string
	Password string
}

// Request is a URI plus the metadata the request builder attached to it
// (§3): the originating source, optional originating HTML element and
// attribute, and any matching credentials. Hash/equality is by URI alone,
// so the dedup stage (via RequestKey) treats identical URLs from many
// sources as one check.
type Request struct {
	URI *URI

	Source      string
	Element     string
	Attribute   string
	Credentials *Credentials
}

// RequestKey returns the value the request builder's dedup set and the
// orchestrator's fail_map key on: the URI alone, independent of Source,
// Element, or Attribute (§4.3: "Deduplication is by URI alone").
func (r Request) RequestKey() string {
	return r.URI.String()
}

// CredentialMatcher looks up basic-auth credentials for a URI by matching
// it against a caller-provided list of regex-to-credential mappings (§4.3).
// Adapted from the teacher's gases/basic_auth.go BasicAuthValidator, which
// validates a supplied username/password pair; here the direction is
// reversed; given a URI, find the credentials to present.
type CredentialMatcher struct {
	rules []credentialRule
}

type credentialRule struct {
	pattern matcher
	creds   Credentials
}

// matcher is satisfied by *regexp.Regexp; kept as an interface so tests can
// supply trivial string-equality matchers without compiling a regex.
type matcher interface {
	MatchString(string) bool
}

// NewCredentialMatcher returns an empty CredentialMatcher. Rules are added
// with AddRule and tried in the order added; the first matching pattern
// wins.
func NewCredentialMatcher() *CredentialMatcher {
	return &CredentialMatcher{}
}

// AddRule appends a host-pattern -> credentials mapping.
func (m *CredentialMatcher) AddRule(pattern matcher, creds Credentials) {
	m.rules = append(m.rules, credentialRule{pattern: pattern, creds: creds})
}

// Match returns the credentials for uri's string form, or nil if no rule
// matches.
func (m *CredentialMatcher) Match(uri *URI) *Credentials {
	s := uri.String()
	for _, rule := range m.rules {
		if rule.pattern.MatchString(s) {
			c := rule.creds
			return &c
		}
	}
	return nil
}
