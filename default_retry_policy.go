package client

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRetryCount        = 3
	DefaultRetryWaitTime     = 1 * time.Second
	DefaultRetryMaxWaitTime  = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// RetryableStatusCodes lists the HTTP status codes retried by [DefaultRetryPolicy].
var RetryableStatusCodes = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// DefaultRetryPolicy is the default retry condition used by [Client]. It retries
// every transport-level failure, timeouts included, and the responses listed in
// [RetryableStatusCodes]. Cancellation is never retried.
//
// Supply a custom function via [WithRetryPolicy] to override this behaviour. The
// attempt limit set by [WithRetryCount] applies regardless of the policy.
func DefaultRetryPolicy(r *Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}

	if r == nil {
		return true
	}

	_, ok := RetryableStatusCodes[r.StatusCode]

	return ok
}

// shouldRetry decides whether attempt (zero-based) may be followed by another one.
// A nil response with a nil error stands for a transport failure.
func (c *Client) shouldRetry(r *Response, err error, attempt int) bool {
	if attempt >= c.options.retryCount {
		return false
	}

	return c.options.retryPolicy(r, err)
}

// calculateDelay returns the wait before the attempt following attempt. A valid
// Retry-After value wins over the exponential schedule and is not capped.
func (c *Client) calculateDelay(attempt int, retryAfter string) time.Duration {
	if d, ok := parseRetryAfter(retryAfter, time.Now()); ok {
		return d
	}

	delay := float64(c.options.retryWaitTime) * math.Pow(c.options.backoffMultiplier, float64(attempt))
	if delay > float64(c.options.retryMaxWaitTime) {
		return c.options.retryMaxWaitTime
	}

	return time.Duration(delay)
}

// parseRetryAfter accepts delay-seconds (fractions allowed, negatives floored at 0)
// or an HTTP-date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}

		d := math.Max(secs, 0) * float64(time.Second)
		if d >= math.MaxInt64 {
			return time.Duration(math.MaxInt64), true
		}

		return time.Duration(d), true
	}

	if t, err := http.ParseTime(value); err == nil {
		return max(t.Sub(now), 0), true
	}

	return 0, false
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
