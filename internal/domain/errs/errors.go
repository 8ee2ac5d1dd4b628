package errs

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindInsufficientData Kind = "INSUFFICIENT_DATA"
	KindDegenerateFit    Kind = "DEGENERATE_FIT"
	KindUpstreamFetch    Kind = "UPSTREAM_FETCH"
	KindConfiguration    Kind = "CONFIGURATION"
)

// Error is the typed failure returned by the pipeline and its collaborators.
type Error struct {
	Kind     Kind
	Op       string
	Message  string
	Observed int
	Required int
	Cause    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InsufficientData reports that a stage saw fewer rows than it needs.
func InsufficientData(stage string, observed, required int) *Error {
	return &Error{
		Kind:     KindInsufficientData,
		Op:       stage,
		Message:  fmt.Sprintf("need >= %d rows, got %d", required, observed),
		Observed: observed,
		Required: required,
	}
}

func DegenerateFit(op, message string, cause error) *Error {
	return &Error{Kind: KindDegenerateFit, Op: op, Message: message, Cause: cause}
}

func UpstreamFetch(source string, cause error) *Error {
	return &Error{Kind: KindUpstreamFetch, Op: source, Message: "fetch failed", Cause: cause}
}

func Configuration(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

func Configurationf(op, format string, args ...interface{}) *Error {
	return Configuration(op, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
