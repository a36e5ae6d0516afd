package errdefs

import (
	"errors"
	"fmt"
)

// ErrConflict denotes that the operation would duplicate state which is
// already tracked, e.g. registering the same legacy callback twice.
type ErrConflict interface {
	Conflict() bool
	error
}

type conflictError struct {
	error
}

func (e *conflictError) Conflict() bool { return true }

func (e *conflictError) Cause() error { return e.error }

func (e *conflictError) Unwrap() error { return e.error }

// AsConflict marks err as ErrConflict without changing its message.
func AsConflict(err error) error {
	if err == nil {
		return nil
	}
	return &conflictError{err}
}

// Conflict makes an ErrConflict from msg.
func Conflict(msg string) error {
	return &conflictError{errors.New(msg)}
}

// Conflictf makes an ErrConflict from a format string.
func Conflictf(format string, args ...interface{}) error {
	return &conflictError{fmt.Errorf(format, args...)}
}

// IsConflict reports whether err, or any cause of it, is an ErrConflict.
func IsConflict(err error) bool {
	return classify(err, func(err error) (bool, bool) {
		if e, ok := err.(ErrConflict); ok {
			return e.Conflict(), true
		}
		return false, false
	})
}
