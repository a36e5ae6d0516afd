package errdefs

import (
	"errors"
	"fmt"
)

// ErrInvalidInput denotes that the caller passed arguments the operation
// cannot accept, such as a payload that does not belong to the claimed event
// ID. Retrying with the same input will fail again.
type ErrInvalidInput interface {
	InvalidInput() bool
	error
}

type invalidInputError struct {
	error
}

func (e *invalidInputError) InvalidInput() bool { return true }

func (e *invalidInputError) Cause() error { return e.error }

func (e *invalidInputError) Unwrap() error { return e.error }

// AsInvalidInput marks err as ErrInvalidInput without changing its message.
func AsInvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return &invalidInputError{err}
}

// InvalidInput makes an ErrInvalidInput from msg.
func InvalidInput(msg string) error {
	return &invalidInputError{errors.New(msg)}
}

// InvalidInputf makes an ErrInvalidInput from a format string.
func InvalidInputf(format string, args ...interface{}) error {
	return &invalidInputError{fmt.Errorf(format, args...)}
}

// IsInvalidInput reports whether err, or any cause of it, is an ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return classify(err, func(err error) (bool, bool) {
		if e, ok := err.(ErrInvalidInput); ok {
			return e.InvalidInput(), true
		}
		return false, false
	})
}
