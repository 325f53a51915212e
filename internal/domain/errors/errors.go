// Package errors defines the application error contract and the error
// taxonomy shared by the controllers and the HTTP boundary.
package errors

import (
	"net/http"

	"relay/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types. These are the only failure categories the HTTP
// boundary knows how to render; controllers wrap them with context.
var (
	// Request-shape errors
	ErrMissingParameter = NewBaseError(
		http.StatusBadRequest,
		"MISSING_PARAMETER",
		"A required parameter is missing",
		"",
	)

	ErrValidation = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_ERROR",
		"The request content is invalid",
		"",
	)

	// Link-flow errors
	ErrSessionExpired = NewBaseError(
		http.StatusNotFound,
		"SESSION_EXPIRED",
		"Session expired or invalid",
		"",
	)

	ErrTokenExchangeFailed = NewBaseError(
		http.StatusBadGateway,
		"TOKEN_EXCHANGE_FAILED",
		"Could not exchange the authorization code",
		"",
	)

	ErrProfileFetchFailed = NewBaseError(
		http.StatusBadGateway,
		"PROFILE_FETCH_FAILED",
		"Could not fetch the account profile",
		"",
	)

	// Publish errors
	ErrNotConnected = NewBaseError(
		http.StatusUnauthorized,
		"NOT_CONNECTED",
		"Account not connected",
		"",
	)

	ErrAuthExpired = NewBaseError(
		http.StatusUnauthorized,
		"AUTH_EXPIRED",
		"Token expired. Please reconnect your account",
		"",
	)

	ErrRateLimited = NewBaseError(
		http.StatusTooManyRequests,
		"RATE_LIMITED",
		"The platform is rate limiting requests",
		"",
	)

	ErrPublishFailed = NewBaseError(
		http.StatusBadGateway,
		"PUBLISH_FAILED",
		"Failed to publish the post",
		"",
	)

	// Store errors
	ErrStoreUnavailable = NewBaseError(
		http.StatusInternalServerError,
		"STORE_UNAVAILABLE",
		"The data store is unavailable",
		"",
	)
)

// NewDatabaseExecuteError wraps an unexpected database failure as a store
// error while preserving the underlying cause in the details.
func NewDatabaseExecuteError(err error, message string) *BaseError {
	return ErrStoreUnavailable.WithDetails(message + ": " + err.Error())
}
