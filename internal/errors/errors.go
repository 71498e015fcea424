// Package errors is the hub's standardized error type, carried through
// the service, store, and every transport adapter so that a single
// AppError maps to a consistent wire shape regardless of which edge
// produced it.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is one of the error kinds named in the hub's error-handling
// design: a validation failure, a missing entity, a malformed stream
// frame, a failed side-effect, or an internal/startup failure.
type ErrorCode string

const (
	ErrInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrNotFound                ErrorCode = "NOT_FOUND"
	ErrMalformedFrame          ErrorCode = "MALFORMED_FRAME"
	ErrExternalTriggerFailure  ErrorCode = "EXTERNAL_TRIGGER_FAILURE"
	ErrPlatformDeliveryFailure ErrorCode = "PLATFORM_DELIVERY_FAILURE"
	ErrInternal                ErrorCode = "INTERNAL_ERROR"
	ErrFatalStartup            ErrorCode = "FATAL_STARTUP_ERROR"
	ErrDatabaseError           ErrorCode = "DATABASE_ERROR"
)

// StatusCodes maps each error code to the HTTP status the HTTP adapter
// responds with. Codes with no natural HTTP surface (MalformedFrame,
// PlatformDeliveryFailure) still get an entry so StatusCode() never
// has to guess.
var StatusCodes = map[ErrorCode]int{
	ErrInvalidInput:            http.StatusBadRequest,
	ErrNotFound:                http.StatusNotFound,
	ErrMalformedFrame:          http.StatusBadRequest,
	ErrExternalTriggerFailure:  http.StatusBadGateway,
	ErrPlatformDeliveryFailure: http.StatusBadGateway,
	ErrInternal:                http.StatusInternalServerError,
	ErrFatalStartup:            http.StatusInternalServerError,
	ErrDatabaseError:           http.StatusInternalServerError,
}

// AppError is a structured application error carrying enough metadata to
// render a consistent JSON body and pick the right HTTP status.
type AppError struct {
	Code      ErrorCode `json:"error"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status appropriate for this error.
func (e *AppError) StatusCode() int {
	if code, ok := StatusCodes[e.Code]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now()}
}

func NewWithDetails(code ErrorCode, message string, details any) *AppError {
	return &AppError{Code: code, Message: message, Details: details, Timestamp: time.Now()}
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// Wrap converts any error into an AppError, preserving one that already
// is one.
func Wrap(err error, code ErrorCode) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(code, err.Error())
}

func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
