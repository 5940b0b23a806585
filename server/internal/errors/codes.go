// Package errors defines the coded errors the plan service returns and the
// API layer maps to HTTP statuses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type for plan operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested plan or session does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates a store or encoding failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeUnavailable indicates a dependency such as the sync remote is down.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

// PlanError represents a structured error for plan operations.
type PlanError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PlanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *PlanError) WithContext(key string, value any) *PlanError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the code to a response status.
func (e *PlanError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeContextCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string, cause error) *PlanError {
	return &PlanError{Code: ErrCodeInvalidArgument, Message: msg, Cause: cause}
}

// NotFound creates a not found error for the given kind and key.
func NotFound(kind string, key any) *PlanError {
	return &PlanError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", kind, key),
	}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *PlanError {
	return &PlanError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Unavailable creates a service unavailable error.
func Unavailable(msg string, cause error) *PlanError {
	return &PlanError{Code: ErrCodeUnavailable, Message: msg, Cause: cause}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *PlanError {
	return &PlanError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *PlanError {
	return &PlanError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *PlanError {
	return &PlanError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, has the given code.
func IsCode(err error, code ErrorCode) bool {
	var planErr *PlanError
	if errors.As(err, &planErr) {
		return planErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a PlanError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var planErr *PlanError
	if errors.As(err, &planErr) {
		return planErr.Code
	}
	return defaultCode
}
