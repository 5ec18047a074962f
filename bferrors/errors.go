// Package bferrors defines the error taxonomy shared by every layer of
// blockfs: the device adapter, the bitmap allocator, the path resolver,
// and the namespace and file operations built on top of them.
package bferrors

import "fmt"

// Error is implemented by every error blockfs returns. It lets callers
// attach additional context without losing the underlying sentinel, the
// same shape disko's DriverError takes.
type Error interface {
	error
	WithMessage(message string) Error
	WrapError(err error) Error
	Unwrap() error
}

type wrappedError struct {
	message string
	cause   error
}

func (e wrappedError) Error() string {
	return e.message
}

func (e wrappedError) WithMessage(message string) Error {
	return wrappedError{
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

func (e wrappedError) WrapError(err error) Error {
	return wrappedError{
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}

func (e wrappedError) Unwrap() error {
	return e.cause
}
