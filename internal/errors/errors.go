// Package errors implements the structured error taxonomy used across the
// index builders and the scorer: BadInput, NotFound, FetchExhausted,
// ParseError, SchemaMismatch, and InternalInvariant. Each constructor fixes
// the exit code the CLI layer should use when the error escapes unhandled.
package errors

import (
	"fmt"
)

// Kind identifies which bucket of the error taxonomy an Error belongs to.
type Kind int

const (
	// BadInput covers malformed CLI flags, missing required arguments,
	// missing required columns, and non-existent files. Fatal, exit 2.
	BadInput Kind = iota
	// NotFound means a remote source reports the pathway is gone.
	// Non-fatal at index granularity.
	NotFound
	// FetchExhausted means retries were exhausted fetching a remote
	// document. Same disposition as NotFound.
	FetchExhausted
	// ParseError means a document parses but violates structural rules.
	// Non-fatal; the offending pathway is skipped.
	ParseError
	// SchemaMismatch means the index file's schema_version is
	// incompatible with the running code. Fatal, exit 3.
	SchemaMismatch
	// InternalInvariant means a post-condition failed that should not be
	// reachable in correct code. Fatal, exit 1.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case BadInput:
		return "BadInput"
	case NotFound:
		return "NotFound"
	case FetchExhausted:
		return "FetchExhausted"
	case ParseError:
		return "ParseError"
	case SchemaMismatch:
		return "SchemaMismatch"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "Unknown"
	}
}

// ExitCode returns the process exit code this kind of error maps to, per
// the CLI contract (0 success, 2 bad args, 3 schema mismatch, 1 runtime).
func (k Kind) ExitCode() int {
	switch k {
	case BadInput:
		return 2
	case SchemaMismatch:
		return 3
	default:
		return 1
	}
}

// Error is a structured error carrying the taxonomy Kind plus the smallest
// affected unit (a URL, pathway id, or column name) so user-facing messages
// never need a stack trace to be actionable.
type Error struct {
	Kind  Kind
	Unit  string // URL, pathway id, column name, file path — whatever is smallest
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Unit != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Msg, e.Unit, e.Cause)
	case e.Unit != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Unit)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by Kind only, so errors.Is(err, errors.New(ParseError, "", ""))
// works as a kind-check idiom.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, unit, msg string) *Error {
	return &Error{Kind: kind, Unit: unit, Msg: msg}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, unit, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Unit: unit, Msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error under the taxonomy, preserving Cause for
// errors.Unwrap/errors.As chains.
func Wrap(kind Kind, unit, msg string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Unit: unit, Msg: msg, Cause: cause}
}

// BadInputf is a convenience constructor for CLI/flag validation failures.
func BadInputf(unit, format string, args ...interface{}) *Error {
	return Newf(BadInput, unit, format, args...)
}

// NotFoundf is a convenience constructor for a remote 404.
func NotFoundf(unit, format string, args ...interface{}) *Error {
	return Newf(NotFound, unit, format, args...)
}

// FetchExhaustedErr wraps the last transport error after retries are spent.
func FetchExhaustedErr(unit string, cause error) *Error {
	return Wrap(FetchExhausted, unit, "retries exhausted", cause)
}

// ParseErrorf is a convenience constructor for a structural document error.
func ParseErrorf(unit, format string, args ...interface{}) *Error {
	return Newf(ParseError, unit, format, args...)
}

// SchemaMismatchf is a convenience constructor for an index version error.
func SchemaMismatchf(unit, format string, args ...interface{}) *Error {
	return Newf(SchemaMismatch, unit, format, args...)
}

// InternalInvariantf is a convenience constructor for a broken post-condition.
func InternalInvariantf(unit, format string, args ...interface{}) *Error {
	return Newf(InternalInvariant, unit, format, args...)
}

// KindOf extracts the Kind of err, defaulting to InternalInvariant for
// errors outside the taxonomy (treated as unexpected).
func KindOf(err error) Kind {
	if err == nil {
		return InternalInvariant
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return InternalInvariant
}

// ExitCodeFor maps any error to the exit code the top-level CLI should use.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
