// Package apperr defines the error type shared by annotrack packages.
package apperr

import (
	"fmt"
)

// Error is an application error with a user-facing message and an optional
// underlying cause.
type Error struct {
	Cause   error
	Message string
	// format is the unformatted message of the package-level value this
	// error was derived from.
	format string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the package-level error that e was derived
// from through Fmt or Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t == e || t.base() == e.base()
}

// Fmt returns a copy of the error with its message formatted with args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		format:  e.base(),
	}
}

// Wrap returns a copy of the error with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		format:  e.base(),
	}
}

func (e *Error) base() string {
	if e.format != "" {
		return e.format
	}

	return e.Message
}
