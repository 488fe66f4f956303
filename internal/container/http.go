package container

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/items-api/internal/audit"
	"github.com/serroba/items-api/internal/handlers"
	"github.com/serroba/items-api/internal/health"
	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/messaging"
	"github.com/serroba/items-api/internal/metrics"
	"github.com/serroba/items-api/internal/middleware"
	"github.com/serroba/items-api/internal/ratelimit"
	"github.com/serroba/items-api/internal/store"
	"go.uber.org/zap"
)

// MetricsPackage provides the Prometheus metrics.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// RateLimitPackage provides the tier registry and the client key function.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.Registry, error) {
		opts := do.MustInvoke[*Options](i)

		var windows ratelimit.Store

		switch opts.RateLimitStore {
		case RateLimitMemory:
			windows = store.NewRateLimitMemoryStore()
		case RateLimitRedis:
			client, err := do.Invoke[*Redis](i)
			if err != nil {
				return nil, err
			}

			windows = store.NewRateLimitRedisStore(client.Client)
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}

		return ratelimit.NewRegistry(windows, ratelimit.DefaultPolicy()), nil
	})

	do.Provide(i, func(i *do.Injector) (middleware.ClientKeyFunc, error) {
		opts := do.MustInvoke[*Options](i)

		key := middleware.RemoteAddrKey
		if opts.TrustProxy {
			key = middleware.ProxyAwareKey
		}

		if opts.RateLimitKeyHeader != "" {
			key = middleware.HeaderKey(opts.RateLimitKeyHeader, key)
		}

		return key, nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.NotFound(handlers.RouteNotFound)
		router.MethodNotAllowed(handlers.MethodNotAllowed)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		registry := do.MustInvoke[*ratelimit.Registry](i)
		clientKey := do.MustInvoke[middleware.ClientKeyFunc](i)
		publish := do.MustInvoke[messaging.Publish[audit.ItemChanged]](i)

		svc, err := do.Invoke[*item.Service](i)
		if err != nil {
			return nil, err
		}

		storage := do.MustInvoke[*Storage](i)

		handlers.InstallErrorEnvelope()

		api := humachi.New(router, handlers.NewConfig("Items API", "1.0.0"))

		requestMeta, err := middleware.WithRequestMeta(clientKey)
		if err != nil {
			return nil, err
		}

		api.UseMiddleware(
			requestMeta,
			middleware.AccessLog(logger, m),
			middleware.TierRateLimiter(api, registry, ratelimit.NewOperationTierResolver(), clientKey, m, logger),
		)

		healthHandler := health.NewHandler()
		if storage.Checker != nil {
			healthHandler.Register("database", storage.Checker)
		}

		if opts := do.MustInvoke[*Options](i); opts.usesRedis() {
			client := do.MustInvoke[*Redis](i)
			healthHandler.Register("redis", health.NewRedisChecker(client.Client))
		}

		health.RegisterRoutes(api, healthHandler)
		handlers.RegisterRoutes(api, handlers.NewItemHandler(svc, publish, logger))

		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}
