package errdefs

import (
	"errors"
	"fmt"
)

// ErrNotFound denotes that the operation referenced a callback, event or
// object which is not (or no longer) known.
type ErrNotFound interface {
	NotFound() bool
	error
}

type notFoundError struct {
	error
}

func (e *notFoundError) NotFound() bool { return true }

func (e *notFoundError) Cause() error { return e.error }

func (e *notFoundError) Unwrap() error { return e.error }

// AsNotFound marks err as ErrNotFound without changing its message.
func AsNotFound(err error) error {
	if err == nil {
		return nil
	}
	return &notFoundError{err}
}

// NotFound makes an ErrNotFound from msg.
func NotFound(msg string) error {
	return &notFoundError{errors.New(msg)}
}

// NotFoundf makes an ErrNotFound from a format string.
func NotFoundf(format string, args ...interface{}) error {
	return &notFoundError{fmt.Errorf(format, args...)}
}

// IsNotFound reports whether err, or any cause of it, is an ErrNotFound.
func IsNotFound(err error) bool {
	return classify(err, func(err error) (bool, bool) {
		if e, ok := err.(ErrNotFound); ok {
			return e.NotFound(), true
		}
		return false, false
	})
}
