package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTier is returned when a check names a tier that has no configured limit.
var ErrUnknownTier = errors.New("unknown rate limit tier")

// LimitConfig defines a single rate limit: at most Max requests per Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
	// Message is sent to clients that exceed the limit.
	Message string
}

// Policy maps every tier to its limit.
type Policy struct {
	Limits map[Tier]LimitConfig
}

// DefaultPolicy returns the standard limits for all four tiers.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Tier]LimitConfig{
			TierGeneral: {
				Window:  15 * time.Minute,
				Max:     100,
				Message: "Too many requests from this IP, please try again later.",
			},
			TierRead: {
				Window:  time.Minute,
				Max:     100,
				Message: "Too many read operations from this IP, please try again later.",
			},
			TierWrite: {
				Window:  15 * time.Minute,
				Max:     50,
				Message: "Too many write operations from this IP, please try again later.",
			},
			TierBatch: {
				Window:  15 * time.Minute,
				Max:     10,
				Message: "Too many batch operations from this IP, please try again later.",
			},
		},
	}
}

// Registry holds one fixed window limiter per tier over a shared store.
// Tiers never share counters: keys are prefixed with the tier name.
type Registry struct {
	store    Store
	policy   *Policy
	limiters map[Tier]*FixedWindowLimiter
}

// NewRegistry creates a limiter for every tier in the policy.
func NewRegistry(store Store, policy *Policy) *Registry {
	limiters := make(map[Tier]*FixedWindowLimiter, len(policy.Limits))
	for tier, cfg := range policy.Limits {
		limiters[tier] = NewFixedWindowLimiter(store, cfg.Max, cfg.Window)
	}

	return &Registry{
		store:    store,
		policy:   policy,
		limiters: limiters,
	}
}

// Check counts a request from clientKey against the tier's window.
func (r *Registry) Check(ctx context.Context, tier Tier, clientKey string) (Result, error) {
	limiter, ok := r.limiters[tier]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}

	return limiter.Allow(ctx, buildKey(tier, clientKey))
}

// Message returns the client-facing message for an exhausted tier.
func (r *Registry) Message(tier Tier) string {
	if cfg, ok := r.policy.Limits[tier]; ok && cfg.Message != "" {
		return cfg.Message
	}

	return "Too many requests, please try again later."
}

// Limit returns the configured limit of a tier.
func (r *Registry) Limit(tier Tier) (LimitConfig, bool) {
	cfg, ok := r.policy.Limits[tier]

	return cfg, ok
}

// ResetAll clears the windows of every tier.
func (r *Registry) ResetAll(ctx context.Context) error {
	return r.store.Reset(ctx)
}

func buildKey(tier Tier, clientKey string) string {
	return string(tier) + ":" + clientKey
}
