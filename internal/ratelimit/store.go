package ratelimit

import (
	"context"
	"time"
)

// Window is the state of a fixed window after a hit was counted against it.
type Window struct {
	// Start is when the current window opened.
	Start time.Time
	// Count is the number of allowed hits in the current window.
	Count int64
	// Allowed reports whether this hit was counted.
	Allowed bool
}

// Store defines the interface for rate limit data storage.
type Store interface {
	// Hit opens a new window for key if none exists or the previous one has elapsed,
	// then counts the hit if fewer than limit hits were counted so far.
	// A denied hit leaves the count unchanged. The check and the increment are atomic per key.
	Hit(ctx context.Context, key string, limit int64, window time.Duration) (Window, error)

	// Reset forgets every window.
	Reset(ctx context.Context) error
}
