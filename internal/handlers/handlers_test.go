package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/items-api/internal/audit"
	"github.com/serroba/items-api/internal/handlers"
	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/messaging"
	"github.com/serroba/items-api/internal/middleware"
	"github.com/serroba/items-api/internal/ratelimit"
	"github.com/serroba/items-api/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testClientAddr = "192.168.1.1:12345"

// recordedEvents collects published audit events.
type recordedEvents struct {
	mu     sync.Mutex
	events []audit.ItemChanged
}

func (r *recordedEvents) publish(_ context.Context, event *audit.ItemChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, *event)

	return nil
}

func (r *recordedEvents) all() []audit.ItemChanged {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]audit.ItemChanged(nil), r.events...)
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ context.Context, _ *T) error { return err }
}

type testServer struct {
	router http.Handler
	events *recordedEvents
}

type serverOption func(*serverConfig)

type serverConfig struct {
	repo    item.Repository
	publish messaging.Publish[audit.ItemChanged]
	logger  *zap.Logger
}

func withRepository(repo item.Repository) serverOption {
	return func(c *serverConfig) { c.repo = repo }
}

func withPublish(publish messaging.Publish[audit.ItemChanged]) serverOption {
	return func(c *serverConfig) { c.publish = publish }
}

func withLogger(logger *zap.Logger) serverOption {
	return func(c *serverConfig) { c.logger = logger }
}

// newTestServer wires the item routes behind the same middleware chain as the server.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	handlers.InstallErrorEnvelope()

	events := &recordedEvents{}
	cfg := &serverConfig{
		repo:    store.NewMemoryStore(),
		publish: events.publish,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewMux()
	api := humachi.New(router, handlers.NewConfig("Items API", "test"))

	meta, err := middleware.WithRequestMeta(middleware.RemoteAddrKey)
	require.NoError(t, err)

	api.UseMiddleware(
		meta,
		middleware.TierRateLimiter(
			api,
			ratelimit.NewRegistry(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy()),
			ratelimit.NewOperationTierResolver(),
			middleware.RemoteAddrKey,
			nil,
			cfg.logger,
		),
	)

	svc := item.NewService(cfg.repo, nil)
	handlers.RegisterRoutes(api, handlers.NewItemHandler(svc, cfg.publish, cfg.logger))

	return &testServer{router: router, events: events}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = testClientAddr

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

type itemJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type itemEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Item itemJSON `json:"item"`
	} `json:"data"`
}

type itemsEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Items []itemJSON `json:"items"`
	} `json:"data"`
}

type errorEnvelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

// failingRepository fails every call.
type failingRepository struct{}

var errDatabaseDown = errors.New("connection refused by db-primary:5432")

func (failingRepository) List(context.Context) ([]*item.Item, error)       { return nil, errDatabaseDown }
func (failingRepository) Get(context.Context, item.ID) (*item.Item, error) { return nil, errDatabaseDown }
func (failingRepository) Delete(context.Context, item.ID) error            { return errDatabaseDown }
func (failingRepository) Create(context.Context, item.NewItem) (*item.Item, error) {
	return nil, errDatabaseDown
}

func (failingRepository) Update(context.Context, item.ID, item.Patch) (*item.Item, error) {
	return nil, errDatabaseDown
}

func (failingRepository) InTransaction(context.Context, func(item.Queries) error) error {
	return errDatabaseDown
}
