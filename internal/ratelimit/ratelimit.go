// Package ratelimit throttles requests per identifier over a fixed window.
//
// The policy is fixed-window-by-reset: the window starts at the first request
// and once it elapses the next request starts a fresh window with a count of
// one, regardless of burst at the boundary. Callers supply limit and window;
// the limiter itself carries no policy.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

const keyPrefix = "rate-limit:"

// Counter is the per-identifier window state.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// CounterStore holds window counters. Implementations must make Check's
// read-modify-write race-free for a given key within one process.
type CounterStore interface {
	// Check applies the fixed-window policy for key and returns the
	// resulting counter. When the limit is exceeded it returns the live
	// counter and allowed=false without incrementing.
	Check(ctx context.Context, key string, limit int, window time.Duration) (c Counter, allowed bool, err error)
	Reset(ctx context.Context, key string) error
}

// RateLimitError reports how long the caller must wait, in whole seconds
// rounded up.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", e.RetryAfter)
}

// Limiter applies per-identifier limits against an injected counter store.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

func New(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check records one request for identifier and fails with *RateLimitError
// once limit requests have been seen inside the current window.
func (l *Limiter) Check(ctx context.Context, identifier string, limit int, window time.Duration) error {
	c, allowed, err := l.store.Check(ctx, keyPrefix+identifier, limit, window)
	if err != nil {
		return fmt.Errorf("rate limit check for %q: %w", identifier, err)
	}
	if !allowed {
		remaining := c.ResetAt.Sub(l.now())
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return &RateLimitError{RetryAfter: secs}
	}
	return nil
}

// Reset clears the counter for identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	return l.store.Reset(ctx, keyPrefix+identifier)
}
