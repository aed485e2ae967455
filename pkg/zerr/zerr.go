// Package zerr wraps internal plumbing errors (malformed modules, patch
// conflicts, host-boundary misuse) with stack-trace-bearing context. It is
// never used for language-level exceptions raised by running code -- those
// stay the value-typed vm.RuntimeError, matching spec section 7's split
// between host-side and language-side error reporting.
package zerr

import "github.com/pkg/errors"

// Wrap annotates err with a message and a stack trace, or returns nil if
// err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// New creates a new error carrying a stack trace from the call site.
func New(message string) error {
	return errors.New(message)
}

// Cause unwraps to the root cause, mirroring errors.Cause.
func Cause(err error) error {
	return errors.Cause(err)
}
