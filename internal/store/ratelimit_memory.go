package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/items-api/internal/ratelimit"
)

// sweepEvery is how many hits pass between scans for elapsed windows.
const sweepEvery = 1024

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	hits    int
	now     func() time.Time
}

type fixedWindow struct {
	start  time.Time
	count  int64
	length time.Duration
}

// RateLimitMemoryOption configures a RateLimitMemoryStore.
type RateLimitMemoryOption func(*RateLimitMemoryStore)

// WithClock replaces the time source.
func WithClock(now func() time.Time) RateLimitMemoryOption {
	return func(s *RateLimitMemoryStore) {
		s.now = now
	}
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore(opts ...RateLimitMemoryOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Hit(
	_ context.Context, key string, limit int64, window time.Duration,
) (ratelimit.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &fixedWindow{start: now, length: window}
		s.windows[key] = w
	}

	allowed := w.count < limit
	if allowed {
		w.count++
	}

	return ratelimit.Window{Start: w.start, Count: w.count, Allowed: allowed}, nil
}

func (s *RateLimitMemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.windows)
	s.hits = 0

	return nil
}

// sweep drops elapsed windows every sweepEvery hits. Callers hold mu.
func (s *RateLimitMemoryStore) sweep(now time.Time) {
	s.hits++
	if s.hits < sweepEvery {
		return
	}

	s.hits = 0

	for key, w := range s.windows {
		if now.Sub(w.start) >= w.length {
			delete(s.windows, key)
		}
	}
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
