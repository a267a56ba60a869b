package errors

import (
	"fmt"
	"net/http"
)

// RateLimitDetails is surfaced to clients so they can show a countdown.
type RateLimitDetails struct {
	RetryAfterSec int `json:"retry_after_sec"`
}

// RateLimitedError is returned while an identity is blocked after too many failures.
type RateLimitedError struct {
	RetryAfterSec int
}

// NewRateLimitedError creates a rate-limit error; retry-after is never below one second.
func NewRateLimitedError(retryAfterSec int) *RateLimitedError {
	return &RateLimitedError{RetryAfterSec: max(retryAfterSec, 1)}
}

// Error implements the error interface
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %d seconds", e.RetryAfterSec)
}

// HTTPCode returns the HTTP status code
func (e *RateLimitedError) HTTPCode() int {
	return http.StatusTooManyRequests
}

// ErrorCode returns the business error code
func (e *RateLimitedError) ErrorCode() string {
	return "RATE_LIMITED"
}

// Message returns the user-friendly error message
func (e *RateLimitedError) Message() string {
	return "Too many attempts, please try again later"
}

// Details carries the remaining wait time.
func (e *RateLimitedError) Details() any {
	return RateLimitDetails{RetryAfterSec: e.RetryAfterSec}
}
