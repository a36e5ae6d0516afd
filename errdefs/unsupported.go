package errdefs

import (
	"errors"
	"fmt"
)

// ErrUnsupported denotes that the operation met a shape it does not know how
// to handle, such as an event kind without a dispatcher.
type ErrUnsupported interface {
	Unsupported() bool
	error
}

type unsupportedError struct {
	error
}

func (e *unsupportedError) Unsupported() bool { return true }

func (e *unsupportedError) Cause() error { return e.error }

func (e *unsupportedError) Unwrap() error { return e.error }

// Unsupportedf makes an ErrUnsupported from a format string.
func Unsupportedf(format string, args ...interface{}) error {
	return &unsupportedError{fmt.Errorf(format, args...)}
}

// Unsupported makes an ErrUnsupported from msg.
func Unsupported(msg string) error {
	return &unsupportedError{errors.New(msg)}
}

// IsUnsupported reports whether err, or any cause of it, is an ErrUnsupported.
func IsUnsupported(err error) bool {
	return classify(err, func(err error) (bool, bool) {
		if e, ok := err.(ErrUnsupported); ok {
			return e.Unsupported(), true
		}
		return false, false
	})
}
