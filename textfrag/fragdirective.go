package textfrag

import "strings"

// Phase is a TextDirective's transient verification state (§3 Data Model).
type Phase int

// Directive phases, advanced in order as matching proceeds.
const (
	PhasePrefix Phase = iota
	PhaseStart
	PhaseEnd
	PhaseSuffix
	PhaseCompleted
)

// TextDirective is one parsed `:~:text=` directive: prefix and suffix are
// optional context anchors; start is mandatory; end is optional and, when
// present, turns the directive into a range match.
type TextDirective struct {
	Prefix string
	Start  string
	End    string
	Suffix string

	Phase Phase

	// MatchedText accumulates the text between the matched start and
	// end (or just the start, when End is empty), across block
	// boundaries if necessary.
	MatchedText string
}

// FragmentDirective is the full set of TextDirective values parsed from one
// URL's `:~:text=...` fragment segment.
type FragmentDirective struct {
	Directives []*TextDirective
}

// Completed reports whether every directive reached PhaseCompleted.
func (fd *FragmentDirective) Completed() bool {
	for _, d := range fd.Directives {
		if d.Phase != PhaseCompleted {
			return false
		}
	}
	return true
}

// IncompleteDirectives returns the directives that did not reach
// PhaseCompleted, so the caller can report which one failed.
func (fd *FragmentDirective) IncompleteDirectives() []*TextDirective {
	var out []*TextDirective
	for _, d := range fd.Directives {
		if d.Phase != PhaseCompleted {
			out = append(out, d)
		}
	}
	return out
}

// ParseFragment extracts the `:~:text=...` portion of fragment (the part
// of a URL fragment after the `:~:` marker) into a FragmentDirective. A
// fragment with no `:~:` marker yields a nil FragmentDirective and no
// error: nothing to verify.
func ParseFragment(fragment string) (*FragmentDirective, error) {
	marker := ":~:"
	idx := strings.Index(fragment, marker)
	if idx < 0 {
		return nil, nil
	}

	directivesPart := fragment[idx+len(marker):]
	fd := &FragmentDirective{}

	for _, seg := range strings.Split(directivesPart, "&") {
		if !strings.HasPrefix(seg, "text=") {
			continue
		}
		d, err := parseTextDirective(strings.TrimPrefix(seg, "text="))
		if err != nil {
			return nil, err
		}
		fd.Directives = append(fd.Directives, d)
	}

	if len(fd.Directives) == 0 {
		return nil, nil
	}
	return fd, nil
}

// parseTextDirective parses one comma-delimited directive value, per the
// text-fragment syntax: `[prefix-,]start[,end][,-suffix]`. Components are
// percent-decoded by the caller's URL layer already; here we just split on
// commas, respecting the trailing "-" that marks a prefix and the leading
// "-" that marks a suffix.
func parseTextDirective(value string) (*TextDirective, error) {
	parts := strings.Split(value, ",")
	d := &TextDirective{}

	if len(parts) > 0 && strings.HasSuffix(parts[0], "-") {
		d.Prefix = strings.TrimSuffix(parts[0], "-")
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.HasPrefix(parts[len(parts)-1], "-") {
		d.Suffix = strings.TrimPrefix(parts[len(parts)-1], "-")
		parts = parts[:len(parts)-1]
	}

	switch len(parts) {
	case 1:
		d.Start = parts[0]
	case 2:
		d.Start, d.End = parts[0], parts[1]
	default:
		// Malformed (no start, or stray commas); leave Start empty so
		// verification immediately reports it incomplete.
	}

	return d, nil
}
