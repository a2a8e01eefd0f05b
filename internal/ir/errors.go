package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes core errors.
type ErrorCode string

const (
	// ErrCodeMalformedGraph indicates a cycle, dangling edge, duplicate node
	// or otherwise invalid graph. Fatal, never retried.
	ErrCodeMalformedGraph ErrorCode = "MALFORMED_GRAPH"

	// ErrCodeGraphTooLarge indicates a graph over the configured node cap.
	ErrCodeGraphTooLarge ErrorCode = "GRAPH_TOO_LARGE"

	// ErrCodeInvalidClaim indicates missing or unknown treatment, outcome or
	// other required claim fields. Caller error.
	ErrCodeInvalidClaim ErrorCode = "INVALID_CLAIM"

	// ErrCodeAlignmentAmbiguous indicates a variable could not be aligned
	// confidently. Non-fatal: surfaced as an unknown variable.
	ErrCodeAlignmentAmbiguous ErrorCode = "ALIGNMENT_AMBIGUOUS"

	// ErrCodeIntegrityFrozen marks a promotion refused by an integrity freeze.
	ErrCodeIntegrityFrozen ErrorCode = "INTEGRITY_FROZEN"

	// ErrCodePersistenceFailure indicates a sink write failed. Never
	// propagated as a computation failure.
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"

	// ErrCodeNotFound indicates a registry lookup found nothing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is the typed error of the causal core.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Details[k])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns e with an added detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsMalformedGraph reports whether err is a malformed graph error.
func IsMalformedGraph(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeMalformedGraph || code == ErrCodeGraphTooLarge
}

// IsInvalidClaim reports whether err is an invalid claim error.
func IsInvalidClaim(err error) bool {
	return CodeOf(err) == ErrCodeInvalidClaim
}

// IsNotFound reports whether err is a registry not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsPersistenceFailure reports whether err is a sink write failure.
func IsPersistenceFailure(err error) bool {
	return CodeOf(err) == ErrCodePersistenceFailure
}
