// Package errors provides coded domain errors for the tracking core.
//
// Services return typed errors; the presentation layer branches on the
// code to decide between a retry-capable message, a silent degrade, or a
// validation hint:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
//
//	var derr *errors.Error
//	if errors.As(err, &derr) && derr.Code == errors.CodeStorage { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the library.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeValidation        Code = "VALIDATION"
	CodeConflict          Code = "CONFLICT"
	CodeStorage           Code = "STORAGE"
	CodeRemoteUnavailable Code = "REMOTE_UNAVAILABLE"
	CodeProvider          Code = "PROVIDER"
	CodeInternal          Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists     = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "conflict"}
	ErrStorage           = &Error{Code: CodeStorage, Message: "storage failure"}
	ErrRemoteUnavailable = &Error{Code: CodeRemoteUnavailable, Message: "remote store unavailable"}
	ErrProvider          = &Error{Code: CodeProvider, Message: "content provider failure"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Storage creates a local storage error wrapping the driver failure.
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: msg, cause: cause}
}

// Storagef creates a local storage error with formatted message.
func Storagef(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeStorage, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Remote creates a remote store error wrapping the transport failure.
func Remote(msg string, cause error) *Error {
	return &Error{Code: CodeRemoteUnavailable, Message: msg, cause: cause}
}

// Provider creates a content provider error.
func Provider(msg string, cause error) *Error {
	return &Error{Code: CodeProvider, Message: msg, cause: cause}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
