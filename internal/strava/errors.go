package strava

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError is returned when the API responds 429. It carries the
// server's Retry-After hint and the raw usage headers so callers can
// surface a wait time instead of a generic failure.
type RateLimitError struct {
	// RetryAfter is the server-provided wait, zero when the header is absent.
	RetryAfter time.Duration
	// Limit and Usage are the raw X-RateLimit-Limit / X-RateLimit-Usage
	// header values, e.g. "600,30000" and "34,512".
	Limit string
	Usage string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %s (usage %s of %s)", e.RetryAfter, e.Usage, e.Limit)
	}
	return fmt.Sprintf("rate limit exceeded (usage %s of %s)", e.Usage, e.Limit)
}

// APIError is any other non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// newRateLimitError builds a RateLimitError from 429 response headers.
func newRateLimitError(h http.Header) *RateLimitError {
	e := &RateLimitError{
		Limit: h.Get("X-RateLimit-Limit"),
		Usage: h.Get("X-RateLimit-Usage"),
	}
	if ra := h.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}
