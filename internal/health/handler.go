package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/items-api/internal/ratelimit"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	checkTimeout = 2 * time.Second
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type namedChecker struct {
	name    string
	checker Checker
}

// Handler handles health check operations.
type Handler struct {
	checkers []namedChecker
	now      func() time.Time
}

// NewHandler creates a new health handler without dependency checks.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// Register adds a dependency check reported under name.
func (h *Handler) Register(name string, checker Checker) *Handler {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})

	return h
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status    string            `doc:"ok when every dependency is healthy, degraded otherwise" json:"status"`
		Timestamp time.Time         `doc:"Server time of the check"                               json:"timestamp"`
		Checks    map[string]string `doc:"Health of each dependency"                              json:"checks,omitempty"`
	}
}

// Check performs a health check of the application and its dependencies.
// The service itself is up whenever it answers, so the status code is always 200.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Timestamp = h.now().UTC()

	if len(h.checkers) > 0 {
		resp.Body.Checks = make(map[string]string, len(h.checkers))
	}

	for _, c := range h.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.checker.Ping(checkCtx)

		cancel()

		if err != nil {
			resp.Body.Checks[c.name] = "unhealthy"
			resp.Body.Status = StatusDegraded

			continue
		}

		resp.Body.Checks[c.name] = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
