// Package errors holds the sentinel errors and error types shared across
// the service, and maps them onto HTTP status codes.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Match them with errors.Is.
var (
	ErrNotFound = errors.New("resource not found")

	// ErrMissingCredential means no access token is configured for a collaborator.
	ErrMissingCredential = errors.New("API token missing")

	ErrRetrievalFailed = errors.New("evidence retrieval failed")

	// ErrMalformedResponse means an upstream body had no recognizable shape.
	// It is never reported as zero evidence.
	ErrMalformedResponse = errors.New("malformed upstream response")

	ErrFallbackFailed      = errors.New("fallback completion failed")
	ErrFallbackUnavailable = errors.New("fallback not configured")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTimeout             = errors.New("operation timed out")
)

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError is a failed call to an external HTTP service. StatusCode is
// zero when no response was received.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream error (url=%s): %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(url string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{URL: url, StatusCode: statusCode, Err: err}
}

// HTTPStatus maps err onto the status an API handler should answer with.
// Unknown errors are 500.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var ue *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrFallbackUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &ue), errors.Is(err, ErrRetrievalFailed), errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrFallbackFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
