package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Tier selects which rate limit budget a request is counted against.
// Every tier has its own independent counters.
type Tier string

const (
	// TierGeneral applies to operations that do not name a tier.
	TierGeneral Tier = "general"
	// TierRead applies to read operations.
	TierRead Tier = "read"
	// TierWrite applies to single-item mutations.
	TierWrite Tier = "write"
	// TierBatch applies to batch mutations.
	TierBatch Tier = "batch"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit configuration.
// This can be attached to Huma operations via the Metadata field.
type EndpointConfig struct {
	// Tier overrides the method-based tier detection.
	Tier Tier

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// TierResolver determines which tier a request is counted against.
type TierResolver interface {
	Resolve(ctx huma.Context) Tier
}

// MethodTierResolver resolves tiers based on HTTP method.
// GET, HEAD, OPTIONS are classified as read operations.
// All other methods are classified as write operations.
type MethodTierResolver struct{}

// NewMethodTierResolver creates a new method-based tier resolver.
func NewMethodTierResolver() *MethodTierResolver {
	return &MethodTierResolver{}
}

// Resolve returns the tier of the request based on its HTTP method.
func (r *MethodTierResolver) Resolve(ctx huma.Context) Tier {
	switch ctx.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return TierRead
	default:
		return TierWrite
	}
}

// OperationTierResolver resolves tiers from operation metadata.
//
// Operations without rate limit metadata use the general tier. Metadata
// with an empty Tier falls back to method-based detection.
type OperationTierResolver struct {
	fallback *MethodTierResolver
}

// NewOperationTierResolver creates a new operation-aware tier resolver.
func NewOperationTierResolver() *OperationTierResolver {
	return &OperationTierResolver{
		fallback: NewMethodTierResolver(),
	}
}

// Resolve returns the tier for a request, checking operation metadata first.
func (r *OperationTierResolver) Resolve(ctx huma.Context) Tier {
	cfg := GetEndpointConfig(ctx)
	if cfg == nil {
		return TierGeneral
	}

	if cfg.Tier != "" {
		return cfg.Tier
	}

	return r.fallback.Resolve(ctx)
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Metadata returns operation metadata assigning the given tier.
func Metadata(tier Tier) map[string]any {
	return map[string]any{MetadataKey: EndpointConfig{Tier: tier}}
}
