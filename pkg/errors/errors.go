// Package errors defines the sentinel errors shared across the frontend and
// maps them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUpstream         = errors.New("upstream failure")
	ErrTimeout          = errors.New("operation timed out")
	ErrMalformedPayload = errors.New("malformed upstream payload")
	ErrInvalidLanguage  = errors.New("unsupported language")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrInternal         = errors.New("internal error")
)

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

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// UpstreamStatusError reports a non-2xx response from the content API.
type UpstreamStatusError struct {
	StatusCode int
	URL        string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream %s responded with %d", e.URL, e.StatusCode)
}

// Unwrap classifies 404 as ErrNotFound and everything else as ErrUpstream.
func (e *UpstreamStatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrUpstream
}

// IsServerError reports whether the upstream answered with a 5xx status.
func (e *UpstreamStatusError) IsServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidLanguage):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrMalformedPayload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
