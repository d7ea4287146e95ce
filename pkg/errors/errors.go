package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Remote store errors
	ErrorTypeFetch ErrorType = "FETCH"
	ErrorTypeWrite ErrorType = "WRITE"
)

// AppError represents an application-specific error
type AppError struct {
	Type         ErrorType              `json:"type"`
	Message      string                 `json:"message"`
	Code         string                 `json:"code,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Notification Notification           `json:"notification"`
	Cause        error                  `json:"-"`
	StackTrace   string                 `json:"-"`
	HTTPStatus   int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithNotification replaces the user-facing notification
func (e *AppError) WithNotification(title, description string) *AppError {
	e.Notification = Notification{Title: title, Description: description, Variant: VariantDestructive}
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewValidationError creates a validation error. The message doubles as the
// notification title ("Title Required", "Selection Required", ...).
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:         ErrorTypeValidation,
		Message:      message,
		HTTPStatus:   http.StatusBadRequest,
		StackTrace:   captureStackTrace(),
		Notification: destructive(message, "Please check the highlighted fields and try again."),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:         ErrorTypeNotFound,
		Message:      fmt.Sprintf("%s not found", resource),
		HTTPStatus:   http.StatusNotFound,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Not Found", fmt.Sprintf("The requested %s could not be found.", resource)),
	}
}

// NewAuthRequiredError creates the error returned when a mutating call has
// no session user behind it.
func NewAuthRequiredError(action string) *AppError {
	return &AppError{
		Type:         ErrorTypeUnauthorized,
		Message:      fmt.Sprintf("authentication required to %s", action),
		HTTPStatus:   http.StatusUnauthorized,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Authentication Required", fmt.Sprintf("Please sign in to %s.", action)),
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Type:         ErrorTypeUnauthorized,
		Message:      message,
		HTTPStatus:   http.StatusUnauthorized,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Authentication Required", "Please sign in to continue."),
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{
		Type:         ErrorTypeForbidden,
		Message:      message,
		HTTPStatus:   http.StatusForbidden,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Not Allowed", "You do not have permission to perform this action."),
	}
}

// NewFetchError creates an error for a failed remote read
func NewFetchError(resource string, err error) *AppError {
	return &AppError{
		Type:         ErrorTypeFetch,
		Message:      fmt.Sprintf("failed to fetch %s", resource),
		Cause:        err,
		HTTPStatus:   http.StatusBadGateway,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Error", fmt.Sprintf("Failed to fetch %s", resource)),
	}
}

// NewWriteError creates an error for a failed remote insert, delete or upload
func NewWriteError(operation string, err error) *AppError {
	return &AppError{
		Type:         ErrorTypeWrite,
		Message:      fmt.Sprintf("failed to %s", operation),
		Cause:        err,
		HTTPStatus:   http.StatusBadGateway,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Error", fmt.Sprintf("Failed to %s", operation)),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:         ErrorTypeInternal,
		Message:      message,
		HTTPStatus:   http.StatusInternalServerError,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Error", "Something went wrong. Please try again."),
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit int, window string) *AppError {
	return &AppError{
		Type:         ErrorTypeRateLimit,
		Message:      fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window),
		HTTPStatus:   http.StatusTooManyRequests,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Slow Down", "Too many requests. Please wait a moment and try again."),
	}
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return &AppError{
		Type:         ErrorTypeUnavailable,
		Message:      fmt.Sprintf("service '%s' is unavailable", service),
		HTTPStatus:   http.StatusServiceUnavailable,
		StackTrace:   captureStackTrace(),
		Notification: destructive("Service Unavailable", "The service is temporarily unavailable. Please try again."),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool {
	return IsType(err, ErrorTypeForbidden)
}

// IsFetch checks if an error is a remote read failure
func IsFetch(err error) bool {
	return IsType(err, ErrorTypeFetch)
}

// IsWrite checks if an error is a remote write failure
func IsWrite(err error) bool {
	return IsType(err, ErrorTypeWrite)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
