package calllog

import (
	"fmt"
	"strings"
)

// Kind classifies pipeline errors.
type Kind string

const (
	KindSchema               Kind = "SCHEMA"
	KindTimeParse            Kind = "TIME_PARSE"
	KindCoercion             Kind = "COERCION"
	KindExclusionUnavailable Kind = "EXCLUSION_UNAVAILABLE"
	KindInput                Kind = "INPUT"
	KindOutput               Kind = "OUTPUT"
)

// Error is the single error type returned by the pipeline stages. Row is the
// 1-based line in the source file (header is line 1), zero when not row specific.
type Error struct {
	Kind    Kind
	Message string
	Row     int
	Field   string
	Value   string
	Cause   error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrSchema               = &Error{Kind: KindSchema}
	ErrTimeParse            = &Error{Kind: KindTimeParse}
	ErrCoercion             = &Error{Kind: KindCoercion}
	ErrExclusionUnavailable = &Error{Kind: KindExclusionUnavailable}
	ErrInput                = &Error{Kind: KindInput}
	ErrOutput               = &Error{Kind: KindOutput}
)

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if e.Row > 0 {
		fmt.Fprintf(&b, " (line %d", e.Row)
		if e.Field != "" {
			fmt.Fprintf(&b, ", field %s", e.Field)
		}
		if e.Value != "" {
			fmt.Fprintf(&b, ", value %q", e.Value)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality so callers can test errors.Is(err, calllog.ErrSchema).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Fatal reports whether an error of this kind aborts a run.
func (k Kind) Fatal() bool {
	return k != KindExclusionUnavailable
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewExclusionUnavailable builds the soft error reported when an exclusion
// list exists but cannot be read.
func NewExclusionUnavailable(source string, cause error) *Error {
	return newError(KindExclusionUnavailable, fmt.Sprintf("exclusion list %s unavailable, continuing without exclusions", source), cause)
}

// NewOutputError wraps a failure of the artifact writer.
func NewOutputError(message string, cause error) *Error {
	return newError(KindOutput, message, cause)
}
