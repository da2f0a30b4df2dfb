package weir

import (
	"errors"
	"strings"
)

// Kind is a closed taxonomy of error kinds (§7), not a type hierarchy: every
// terminal failure is tagged with exactly one Kind, plus an optional
// wrapped cause and a precomputed actionable detail string.
type Kind uint8

// Error kinds, grouped the way §7 groups them.
const (
	// Transport.
	KindDNS Kind = iota
	KindConnectionRefused
	KindConnectionReset
	KindTLS
	KindTimeout
	KindNetworkUnreachable
	KindBrokenPipe
	KindDecode

	// Protocol.
	KindRejectedStatusCode
	KindTooManyRedirects
	KindInvalidStatusLine
	KindHeaderParse

	// URL.
	KindURLMalformed
	KindURLEmptyHost
	KindRelativeWithoutBase
	KindRootRelativeWithoutRoot

	// Filesystem.
	KindInvalidFilePath
	KindFileUnreadable

	// Mail.
	KindMailUnreachable

	// Repository API.
	KindMissingToken
	KindPrivateRepoNoAccess
	KindInvalidRepoPath

	// Fragment.
	KindMissingFragment
	KindTextDirectiveUnsatisfied

	// HTTPS policy.
	KindInsecureURL

	// Cache.
	KindCacheStale
	KindCacheUnreadable

	// Configuration.
	KindConfigUnparseable
	KindConfigInvalidCombination

	KindUnknown
)

// CheckError is the wrapped-error value attached to a terminal Status. It
// carries a Kind, the underlying cause (if any), and a short actionable
// detail string for human consumption.
type CheckError struct {
	Kind   Kind
	Cause  error
	Detail string
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.String()
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *CheckError) Unwrap() error { return e.Cause }

// String names the kind, for logging.
func (k Kind) String() string {
	switch k {
	case KindDNS:
		return "dns"
	case KindConnectionRefused:
		return "connection_refused"
	case KindConnectionReset:
		return "connection_reset"
	case KindTLS:
		return "tls"
	case KindTimeout:
		return "timeout"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindBrokenPipe:
		return "broken_pipe"
	case KindDecode:
		return "decode"
	case KindRejectedStatusCode:
		return "rejected_status_code"
	case KindTooManyRedirects:
		return "too_many_redirects"
	case KindInvalidStatusLine:
		return "invalid_status_line"
	case KindHeaderParse:
		return "header_parse"
	case KindURLMalformed:
		return "url_malformed"
	case KindURLEmptyHost:
		return "url_empty_host"
	case KindRelativeWithoutBase:
		return "relative_without_base"
	case KindRootRelativeWithoutRoot:
		return "root_relative_without_root"
	case KindInvalidFilePath:
		return "invalid_file_path"
	case KindFileUnreadable:
		return "file_unreadable"
	case KindMailUnreachable:
		return "mail_unreachable"
	case KindMissingToken:
		return "missing_token"
	case KindPrivateRepoNoAccess:
		return "private_repo_no_access"
	case KindInvalidRepoPath:
		return "invalid_repo_path"
	case KindMissingFragment:
		return "missing_fragment"
	case KindTextDirectiveUnsatisfied:
		return "text_directive_unsatisfied"
	case KindInsecureURL:
		return "insecure_url"
	case KindCacheStale:
		return "cache_stale"
	case KindCacheUnreadable:
		return "cache_unreadable"
	case KindConfigUnparseable:
		return "config_unparseable"
	case KindConfigInvalidCombination:
		return "config_invalid_combination"
	default:
		return "unknown"
	}
}

// transportFingerprint maps a substring found in a lower-layer transport
// error's message to the Kind and actionable detail string it stands for.
// Mirrors the teacher's minifier.go: a static table of known cases, with a
// generic fallback when nothing in the table matches.
type transportFingerprint struct {
	substr string
	kind   Kind
	detail string
}

var transportFingerprints = []transportFingerprint{
	{"no such host", KindDNS, "DNS resolution failed. Check hostname and DNS settings"},
	{"server misbehaving", KindDNS, "DNS resolution failed. Check hostname and DNS settings"},
	{"connection refused", KindConnectionRefused, "Connection refused"},
	{"connection reset", KindConnectionReset, "Connection reset by peer"},
	{"certificate has expired", KindTLS, "SSL certificate expired"},
	{"certificate is valid for", KindTLS, "SSL certificate does not match hostname"},
	{"x509", KindTLS, "SSL certificate verification failed"},
	{"tls:", KindTLS, "TLS handshake failed"},
	{"i/o timeout", KindTimeout, "Request timed out"},
	{"context deadline exceeded", KindTimeout, "Request timed out"},
	{"network is unreachable", KindNetworkUnreachable, "Network is unreachable"},
	{"broken pipe", KindBrokenPipe, "Connection closed unexpectedly (broken pipe)"},
	{"stopped after", KindTooManyRedirects, "Too many redirects"},
	{"invalid character", KindDecode, "Failed to decode response body"},
}

// classifyTransportError finds the first matching fingerprint for err and
// returns a CheckError carrying its Kind and actionable detail. Unknown
// errors fall back to a generic wrapper (§7).
func classifyTransportError(err error) *CheckError {
	if err == nil {
		return nil
	}

	var ce *CheckError
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())
	for _, fp := range transportFingerprints {
		if strings.Contains(msg, fp.substr) {
			return &CheckError{Kind: fp.kind, Cause: err, Detail: fp.detail}
		}
	}

	return &CheckError{
		Kind:   KindUnknown,
		Cause:  err,
		Detail: "Request failed: " + err.Error(),
	}
}
