// Package errors provides standardized error handling for the gallery service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the gallery service.
type ErrorCode string

const (
	// Client errors
	BAD_REQUEST       ErrorCode = "BAD_REQUEST"       // Malformed request or form
	REJECTED_CONTENT  ErrorCode = "REJECTED_CONTENT"  // Content refused by the profanity filter
	PAYLOAD_TOO_LARGE ErrorCode = "PAYLOAD_TOO_LARGE" // Upload exceeds the configured limit

	// Authentication/Authorization errors
	INVALID_CREDENTIALS ErrorCode = "INVALID_CREDENTIALS" // Missing, invalid or unverifiable token
	FORBIDDEN           ErrorCode = "FORBIDDEN"           // Valid token, insufficient role

	// Resource errors
	NOT_FOUND ErrorCode = "NOT_FOUND"

	// Server errors
	IO_FAILURE ErrorCode = "IO_FAILURE" // File write or delete failed
	INTERNAL   ErrorCode = "INTERNAL"   // Anything unclassified
)

// Error represents a standardized error response.
// Only Message is written to the client; Code and CorrelationID feed logs and status mapping.
type Error struct {
	Code          ErrorCode `json:"-"`
	Message       string    `json:"error"`
	CorrelationID string    `json:"-"`
	HTTPStatus    int       `json:"-"`
	Cause         error     `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Wrap creates a new Error that keeps the underlying cause for logging.
func Wrap(code ErrorCode, message string, correlationID string, cause error) *Error {
	e := New(code, message, correlationID)
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case BAD_REQUEST, REJECTED_CONTENT:
		return http.StatusBadRequest
	case PAYLOAD_TOO_LARGE:
		return http.StatusRequestEntityTooLarge
	case INVALID_CREDENTIALS:
		return http.StatusUnauthorized
	case FORBIDDEN:
		return http.StatusForbidden
	case NOT_FOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
