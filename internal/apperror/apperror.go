// Package apperror defines the error kinds shared by every layer of the client.
//
// Each kind is a sentinel (ErrShape, ErrNotFound, ...) that callers test with
// errors.Is. The concrete *AppError carries the human-readable message, the
// offending field (if any) and the underlying cause.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrShape: a mandatory key is missing or a value has the wrong type.
	ErrShape = errors.New("shape error")
	// ErrParse: a date field is present but is not valid ISO-8601.
	ErrParse = errors.New("parse error")

	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// either of them.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Shape reports a missing mandatory key or a value of the wrong type.
func Shape(field, message string) *AppError {
	return &AppError{
		Err:     ErrShape,
		Message: fmt.Sprintf("%s: %s", field, message),
		Field:   field,
	}
}

// Parse reports a date field whose value could not be parsed.
func Parse(field, value string, cause error) *AppError {
	return &AppError{
		Err:     ErrParse,
		Message: fmt.Sprintf("%s: cannot parse %q as ISO-8601 date-time", field, value),
		Field:   field,
		Cause:   cause,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// The API answers 403 in that case.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the API wants a (valid) token, HTTP 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps any other failure reported by, or on the way to, the API.
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
		Cause:   cause,
	}
}
