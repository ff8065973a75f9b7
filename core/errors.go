package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the taxonomy the service reasons about.
// The kind decides retryability and how a failure is reported: decode
// failures are handled locally, handler errors become events or replies,
// and only Transport failures during initial connect are fatal.
type Kind int

const (
	// KindConfiguration indicates a missing or invalid configuration field.
	KindConfiguration Kind = iota
	// KindTransport indicates a bus connect, publish or subscribe failure.
	KindTransport
	// KindTimeout indicates a request-reply call exceeded its deadline.
	KindTimeout
	// KindNotFound indicates an unknown dialog, workflow, command or query.
	KindNotFound
	// KindModel indicates a text-generation provider failure.
	KindModel
	// KindSerialization indicates a malformed payload (protocol mismatch).
	KindSerialization
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindModel:
		return "model"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// Retryable reports whether an operation failing with this kind may be
// retried by the caller. Configuration, NotFound and Serialization errors
// indicate caller or protocol mistakes that a retry cannot fix.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransport, KindTimeout, KindModel:
		return true
	default:
		return false
	}
}

// Error is the taxonomy-carrying error type. It wraps an optional cause so
// errors.Is / errors.As keep working through it.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
	}
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a cause. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and a flag
// indicating whether a kind was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Retryable reports whether err is retryable; errors without a kind are
// treated as not retryable.
func Retryable(err error) bool {
	k, ok := KindOf(err)
	return ok && k.Retryable()
}
