package errdefs

import (
	"errors"
	"fmt"
)

// ErrUnavailable denotes that a collaborator the operation depends on, such
// as the wake scheduler, could not provide its service. The operation had no
// effect.
type ErrUnavailable interface {
	Unavailable() bool
	error
}

type unavailableError struct {
	error
}

func (e *unavailableError) Unavailable() bool { return true }

func (e *unavailableError) Cause() error { return e.error }

func (e *unavailableError) Unwrap() error { return e.error }

// AsUnavailable marks err as ErrUnavailable without changing its message.
func AsUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{err}
}

// Unavailable makes an ErrUnavailable from msg.
func Unavailable(msg string) error {
	return &unavailableError{errors.New(msg)}
}

// Unavailablef makes an ErrUnavailable from a format string.
func Unavailablef(format string, args ...interface{}) error {
	return &unavailableError{fmt.Errorf(format, args...)}
}

// IsUnavailable reports whether err, or any cause of it, is an ErrUnavailable.
func IsUnavailable(err error) bool {
	return classify(err, func(err error) (bool, bool) {
		if e, ok := err.(ErrUnavailable); ok {
			return e.Unavailable(), true
		}
		return false, false
	})
}
