package weir

import "fmt"

// StatusKind tags the terminal variants of Status (§3).
type StatusKind uint8

// Status kinds.
const (
	StatusOk StatusKind = iota
	StatusRedirected
	StatusUnknownStatusCode
	StatusTimeout
	StatusExcluded
	StatusUnsupported
	StatusError
	StatusCached
)

// Status is the terminal outcome of checking one Request (§3). Exactly one
// of the Is* predicates holds, per invariant P8.
type Status struct {
	Kind StatusKind

	// HTTPStatus is set for Ok, Redirected, UnknownStatusCode, and
	// optionally Timeout.
	HTTPStatus    int
	hasHTTPStatus bool

	// RedirectChain holds the intermediate URLs for StatusRedirected.
	RedirectChain []string

	// UnsupportedReason explains StatusUnsupported.
	UnsupportedReason string

	// Err carries the cause for StatusError.
	Err *CheckError

	// Cached, when Kind is StatusCached, is the wrapped verdict the
	// cache remembered.
	Cached *CacheStatus
}

// Ok builds a StatusOk.
func Ok(httpStatus int) Status {
	return Status{Kind: StatusOk, HTTPStatus: httpStatus, hasHTTPStatus: true}
}

// Redirected builds a StatusRedirected.
func Redirected(httpStatus int, chain []string) Status {
	return Status{Kind: StatusRedirected, HTTPStatus: httpStatus, hasHTTPStatus: true, RedirectChain: chain}
}

// UnknownStatusCode builds a StatusUnknownStatusCode.
func UnknownStatusCode(httpStatus int) Status {
	return Status{Kind: StatusUnknownStatusCode, HTTPStatus: httpStatus, hasHTTPStatus: true}
}

// Timeout builds a StatusTimeout, optionally carrying the last-seen HTTP
// status code.
func Timeout(httpStatus *int) Status {
	s := Status{Kind: StatusTimeout}
	if httpStatus != nil {
		s.HTTPStatus = *httpStatus
		s.hasHTTPStatus = true
	}
	return s
}

// Excluded builds a StatusExcluded.
func Excluded() Status { return Status{Kind: StatusExcluded} }

// Unsupported builds a StatusUnsupported.
func Unsupported(reason string) Status {
	return Status{Kind: StatusUnsupported, UnsupportedReason: reason}
}

// ErrorStatus builds a StatusError.
func ErrorStatus(err *CheckError) Status {
	return Status{Kind: StatusError, Err: err}
}

// CachedStatus builds a StatusCached wrapping cs.
func CachedStatus(cs CacheStatus) Status {
	return Status{Kind: StatusCached, Cached: &cs}
}

// IsSuccess reports whether s represents a successful check. Cached(Ok) is
// success (§3 invariant).
func (s Status) IsSuccess() bool {
	switch s.Kind {
	case StatusOk, StatusRedirected:
		return true
	case StatusCached:
		return s.Cached != nil && s.Cached.Kind == CacheOk
	default:
		return false
	}
}

// IsError reports whether s represents a failed check. Cached(Error) is
// error (§3 invariant).
func (s Status) IsError() bool {
	switch s.Kind {
	case StatusError, StatusUnknownStatusCode:
		return true
	case StatusCached:
		return s.Cached != nil && s.Cached.Kind == CacheError
	default:
		return false
	}
}

// IsExcluded reports whether s represents an excluded URI.
func (s Status) IsExcluded() bool {
	if s.Kind == StatusExcluded {
		return true
	}
	return s.Kind == StatusCached && s.Cached != nil && s.Cached.Kind == CacheExcluded
}

// IsTimeout reports whether s represents a timed-out check.
func (s Status) IsTimeout() bool { return s.Kind == StatusTimeout }

// IsUnsupported reports whether s represents an unsupported scheme/reason.
func (s Status) IsUnsupported() bool {
	if s.Kind == StatusUnsupported {
		return true
	}
	return s.Kind == StatusCached && s.Cached != nil && s.Cached.Kind == CacheUnsupported
}

// String renders a short human label, used by the orchestrator's logging.
func (s Status) String() string {
	switch s.Kind {
	case StatusOk:
		return fmt.Sprintf("OK (%d)", s.HTTPStatus)
	case StatusRedirected:
		return fmt.Sprintf("Redirected (%d)", s.HTTPStatus)
	case StatusUnknownStatusCode:
		return fmt.Sprintf("Unknown status code (%d)", s.HTTPStatus)
	case StatusTimeout:
		return "Timeout"
	case StatusExcluded:
		return "Excluded"
	case StatusUnsupported:
		return "Unsupported: " + s.UnsupportedReason
	case StatusError:
		if s.Err != nil {
			return "Error: " + s.Err.Error()
		}
		return "Error"
	case StatusCached:
		return "Cached(" + s.Cached.String() + ")"
	default:
		return "unknown"
	}
}

// CacheKind tags the compact CacheStatus variants (§3).
type CacheKind uint8

// Cache status kinds.
const (
	CacheOk CacheKind = iota
	CacheError
	CacheExcluded
	CacheUnsupported
)

// CacheStatus is a compact, persistable form of Status (§3). Reducing a
// Status to a CacheStatus is lossy on purpose (§9 design note): a
// CacheError may carry no code, and re-ingesting it under a looser
// accepted-code set still yields an error (P9).
type CacheStatus struct {
	Kind       CacheKind
	HTTPStatus int
	hasStatus  bool
}

// ToCacheStatus reduces a terminal Status to its persistable CacheStatus
// form. Only called on terminal, non-Cached statuses.
func ToCacheStatus(s Status) CacheStatus {
	switch {
	case s.IsExcluded():
		return CacheStatus{Kind: CacheExcluded}
	case s.IsUnsupported():
		return CacheStatus{Kind: CacheUnsupported}
	case s.IsSuccess():
		return CacheStatus{Kind: CacheOk, HTTPStatus: s.HTTPStatus, hasStatus: s.hasHTTPStatus}
	default:
		cs := CacheStatus{Kind: CacheError}
		if s.hasHTTPStatus {
			cs.HTTPStatus = s.HTTPStatus
			cs.hasStatus = true
		}
		return cs
	}
}

// ToStatus reinflates a CacheStatus into a wrapping StatusCached, so P9
// holds under any accepted-code set the caller chooses to apply downstream.
func (cs CacheStatus) ToStatus() Status { return CachedStatus(cs) }

// String renders a short label.
func (cs CacheStatus) String() string {
	switch cs.Kind {
	case CacheOk:
		return fmt.Sprintf("Ok(%d)", cs.HTTPStatus)
	case CacheExcluded:
		return "Excluded"
	case CacheUnsupported:
		return "Unsupported"
	default:
		if cs.hasStatus {
			return fmt.Sprintf("Error(%d)", cs.HTTPStatus)
		}
		return "Error"
	}
}
