package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoBackends is returned when a router is built without any backend.
var ErrNoBackends = errors.New("llm: at least one backend is required")

// APICallError is a failed call to a provider API.
type APICallError struct {
	StatusCode  int
	IsRetryable bool
	Message     string
	Cause       error
}

func (e *APICallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm api call failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm api call failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APICallError) Unwrap() error { return e.Cause }

// NewAPICallError classifies a provider status code.
func NewAPICallError(status int, message string, cause error) *APICallError {
	return &APICallError{
		StatusCode:  status,
		IsRetryable: retryableStatus(status),
		Message:     message,
		Cause:       cause,
	}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return status >= http.StatusInternalServerError
}

// IsRetryable reports whether err should trigger a fallback to the next
// backend: an API call error that is rate limited or flagged retryable.
func IsRetryable(err error) bool {
	var apiErr *APICallError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.IsRetryable
}

// IsQuotaExceeded reports whether err is a rate limit rejection.
func IsQuotaExceeded(err error) bool {
	var apiErr *APICallError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
