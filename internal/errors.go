package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeRateLimited  = "rate_limited"
	CodeTimeout      = "timeout"
	CodeInternal     = "internal_error"
)

// AppError carries the HTTP status and a stable code for the client.
// Err is the underlying cause and is only ever logged.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, msg string) *AppError {
	return &AppError{Status: status, Code: code, Message: msg}
}

func ValidationError(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, msg)
}

func UnauthorizedError(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func ForbiddenError(msg string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, msg)
}

func NotFoundError(msg string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, msg)
}

func RateLimitedError() *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
}

func TimeoutError(err error) *AppError {
	return &AppError{Status: http.StatusServiceUnavailable, Code: CodeTimeout, Message: "The data store did not respond in time", Err: err}
}

func PersistenceError(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// AsAppError converts any error into an AppError. Store deadlines become
// timeouts and everything unrecognised becomes a generic persistence error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	if errors.Is(err, ErrNotFound) {
		return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Entry not found", Err: err}
	}
	return PersistenceError(err)
}
