// Package errors defines the service-level sentinel errors and the AppError
// wrapper that maps failures onto HTTP status codes. Index-engine errors
// (missing or mismatching snapshot versions) are mapped here as well so
// handlers can stay free of status-code logic.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/searchlite/searchlite/pkg/textindex"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
	ErrTimeout          = errors.New("operation timed out")
	ErrInternal         = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and an explicit
// HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel error with a status code and message.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode returns the HTTP status for err, falling back to 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, textindex.ErrMissingVersion),
		errors.Is(err, textindex.ErrVersionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
