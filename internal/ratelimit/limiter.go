package ratelimit

import (
	"context"
	"math"
	"time"
)

// Result describes a rate limit decision and the numbers reported to the client.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// Reset is when the current window ends.
	Reset time.Time
}

// RetryAfter returns the whole seconds left until the window resets, rounded up.
func (r Result) RetryAfter(now time.Time) int64 {
	return max(0, int64(math.Ceil(r.Reset.Sub(now).Seconds())))
}

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindowLimiter implements rate limiting using a fixed window algorithm.
type FixedWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(store Store, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Result, error) {
	w, err := l.store.Hit(ctx, key, l.limit, l.window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   w.Allowed,
		Limit:     l.limit,
		Remaining: max(0, l.limit-w.Count),
		Reset:     w.Start.Add(l.window),
	}, nil
}
