package external

import (
	"fmt"
	"net/http"
	"time"
)

// NonRetryableError is returned when the upstream rejects the request with 400, 401 or 403.
type NonRetryableError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *NonRetryableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream rejected request to %s with status %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream rejected request to %s with status %d", e.URL, e.StatusCode)
}

// TimeoutError is returned when the last allowed attempt ran out of time.
type TimeoutError struct {
	URL      string
	Timeout  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s (%d attempts)", e.URL, e.Timeout, e.Attempts)
}

// RetriesExhaustedError is returned when every attempt failed with a retryable, non-timeout cause.
// Message holds the upstream error message when the provider returned a known error payload.
type RetriesExhaustedError struct {
	URL        string
	Attempts   int
	StatusCode int
	Message    string
	Err        error
}

func (e *RetriesExhaustedError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("request to %s failed after %d attempts: status %d: %s", e.URL, e.Attempts, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("request to %s failed after %d attempts: status %d", e.URL, e.Attempts, e.StatusCode)
	default:
		return fmt.Sprintf("request to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// HasUpstreamMessage reports whether the failure carried a provider error payload.
func (e *RetriesExhaustedError) HasUpstreamMessage() bool {
	return e.Message != ""
}

// attemptError describes one failed attempt.
type attemptError struct {
	statusCode int
	message    string
	timedOut   bool
	err        error
}

func (e *attemptError) Error() string {
	switch {
	case e.timedOut:
		return "attempt timed out"
	case e.statusCode != 0 && e.message != "":
		return fmt.Sprintf("status %d: %s", e.statusCode, e.message)
	case e.statusCode != 0:
		return fmt.Sprintf("status %d %s", e.statusCode, http.StatusText(e.statusCode))
	default:
		return e.err.Error()
	}
}

func (e *attemptError) Unwrap() error {
	return e.err
}

// IsNonRetryableStatus reports whether status short-circuits retries.
func IsNonRetryableStatus(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden
}
