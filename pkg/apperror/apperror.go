package apperror

import (
	"fmt"
	"net/http"
)

// Error codes used across the API.
const (
	// Client errors (4xx)
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidID        = "INVALID_ID"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyProcessed = "ALREADY_PROCESSED"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"

	// Server errors (5xx)
	CodeStore = "STORE_ERROR"
)

// AppError carries an error code, a user-facing message and the HTTP status
// the handler should reply with. The wrapped error never crosses the API
// boundary; it is for server-side logging only.
type AppError struct {
	Code       string // Error code (e.g., INVALID_ID)
	Message    string // User-friendly message
	HTTPStatus int    // HTTP status code
	Err        error  // Wrapped original error (optional)
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap interface for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError without wrapping
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap creates an AppError that wraps an existing error
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Validation returns a 400 for missing or invalid input fields.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// InvalidID returns a 400 for a malformed identifier.
func InvalidID(message string) *AppError {
	return New(CodeInvalidID, message, http.StatusBadRequest)
}

// NotFound returns a 404 for a missing record.
func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// AlreadyProcessed returns a 400 for a request outside the PENDING state.
func AlreadyProcessed(message string) *AppError {
	return New(CodeAlreadyProcessed, message, http.StatusBadRequest)
}

// Forbidden returns a 403 for a self-resolution attempt or role mismatch.
func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

// Unauthorized returns a 401 for a missing or invalid credential.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Store wraps a persistence failure as a 500 with a generic message.
func Store(err error, message string) *AppError {
	return Wrap(err, CodeStore, message, http.StatusInternalServerError)
}
