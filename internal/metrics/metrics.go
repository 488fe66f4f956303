// Package metrics exposes Prometheus metrics for item operations, rate limiting and HTTP traffic.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "items_api"

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	batchSize         prometheus.Histogram
	rateLimits        *prometheus.CounterVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New creates the service metrics on a fresh registry that also carries Go runtime
// and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return NewWithRegistry(registry)
}

// NewWithRegistry creates the service metrics on the given registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		registry: registry,
		operations: register(registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of item operations by outcome.",
		}, []string{"operation", "outcome"})),
		operationDuration: register(registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of item operations in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"})),
		batchSize: register(registry, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of items per batch create.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		})),
		rateLimits: register(registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Total number of rate limit decisions by tier.",
		}, []string{"tier", "decision"})),
		requests: register(registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"})),
		requestDuration: register(registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"})),
	}
}

// register adds c to r. A collector registered before under the same descriptor is reused.
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	if err := r.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}

		panic(fmt.Sprintf("register collector: %v", err))
	}

	return c
}

// ObserveOperation records the outcome and latency of an item operation.
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveBatchSize records the number of items in a batch create.
func (m *Metrics) ObserveBatchSize(size int) {
	m.batchSize.Observe(float64(size))
}

// ObserveRateLimit records whether a request was allowed by the tier's limiter.
func (m *Metrics) ObserveRateLimit(tier string, allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "limited"
	}

	m.rateLimits.WithLabelValues(tier, decision).Inc()
}

// ObserveRequest records a served HTTP request. route is the matched route template.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
