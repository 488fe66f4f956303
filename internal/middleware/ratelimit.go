package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/items-api/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitObserver is notified of every rate limit decision.
type RateLimitObserver interface {
	ObserveRateLimit(tier string, allowed bool)
}

// TierRateLimiter returns a Huma middleware that counts every request against the
// tier its operation resolves to.
//
// The RateLimit-* headers are set on every counted response, including errors.
// When the store fails the request is answered with 500 and only RateLimit-Limit.
// Exhausted budgets are answered with 429 and Retry-After before the handler runs.
// Operations can opt out with ratelimit.EndpointConfig{Disabled: true}.
func TierRateLimiter(
	api huma.API,
	registry *ratelimit.Registry,
	resolver ratelimit.TierResolver,
	clientKey ClientKeyFunc,
	observer RateLimitObserver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		tier := resolver.Resolve(ctx)
		key := clientKey(ctx)

		result, err := registry.Check(ctx.Context(), tier, key)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.String("tier", string(tier)),
				zap.Error(err),
			)

			// The window is unknown, so only the configured limit can be reported.
			if cfg, ok := registry.Limit(tier); ok {
				ctx.SetHeader(HeaderRateLimitLimit, strconv.FormatInt(cfg.Max, 10))
			}

			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "Internal server error")

			return
		}

		ctx.SetHeader(HeaderRateLimitLimit, strconv.FormatInt(result.Limit, 10))
		ctx.SetHeader(HeaderRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
		ctx.SetHeader(HeaderRateLimitReset, strconv.FormatInt(result.Reset.Unix(), 10))

		if observer != nil {
			observer.ObserveRateLimit(string(tier), result.Allowed)
		}

		if !result.Allowed {
			ctx.SetHeader(HeaderRetryAfter, strconv.FormatInt(result.RetryAfter(time.Now()), 10))

			logger.Warn("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("method", ctx.Method()),
				zap.String("tier", string(tier)),
				zap.Int64("limit", result.Limit),
				zap.String("client", key),
			)

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, registry.Message(tier))

			return
		}

		next(ctx)
	}
}

// operationPath extracts the path from the operation, if available.
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
