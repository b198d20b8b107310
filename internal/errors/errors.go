// Package errors provides the error-code taxonomy shared by the sync core.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failure for the reconciliation loop.
type Code string

const (
	// CodeTransient covers network and service-unavailable failures. The
	// affected queue entry is retried on the next trigger.
	CodeTransient Code = "TRANSIENT"

	// CodeNotFound means the remote reports the target already absent.
	// The reconciliation loop treats it as converged, never as failure.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAuth covers authentication/authorization rejections.
	CodeAuth Code = "AUTH_FAILED"

	// CodeValidation covers every other remote rejection.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeDatabase covers local persistence failures.
	CodeDatabase Code = "DATABASE_ERROR"

	// CodeInternal is the fallback for unclassified failures.
	CodeInternal Code = "INTERNAL_ERROR"
)

// AppError is an application error with a structured code.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain. Unclassified errors map
// to CodeInternal.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether any error in the chain carries the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether the error means the target is already absent
// remotely. Errors produced outside this module may arrive without a
// structured code, so a message check backs up the code comparison.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, CodeNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// IsTransient reports whether the error should be retried silently.
func IsTransient(err error) bool {
	return Is(err, CodeTransient)
}
