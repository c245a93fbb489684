package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/ndcstatic/internal/engine"
)

// rowBuckets cover the handful-to-thousands row counts of a static table.
var rowBuckets = []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000}

// Metrics holds the Prometheus collectors of one server.
//
// Metrics is also an engine.Hook: register it on the Executor with
// engine.WithHook to record per-query row counts.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queryErrors     *prometheus.CounterVec
	rowsScanned     prometheus.Histogram
	rowsReturned    prometheus.Histogram
	nestedIgnored   prometheus.Counter
}

var _ engine.Hook = (*Metrics)(nil)

// NewMetrics registers the collectors on reg. A nil reg gets a fresh
// registry, so tests can build many servers in one process.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndcstatic_http_requests_total",
				Help: "Total HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ndcstatic_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		queryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndcstatic_query_errors_total",
				Help: "Failed query requests by error code.",
			},
			[]string{"code"},
		),
		rowsScanned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ndcstatic_query_rows_scanned",
			Help:    "Rows of the root collection considered by the filter.",
			Buckets: rowBuckets,
		}),
		rowsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ndcstatic_query_rows_returned",
			Help:    "Rows in the query response.",
			Buckets: rowBuckets,
		}),
		nestedIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ndcstatic_nested_clauses_ignored_total",
			Help: "Nested where/order_by clauses that were not applied.",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BeforeFilter(_ context.Context, info engine.PhaseInfo) {
	m.rowsScanned.Observe(float64(info.Rows))
}

func (m *Metrics) AfterProject(_ context.Context, info engine.PhaseInfo) {
	m.rowsReturned.Observe(float64(info.Rows))
}

func (m *Metrics) OnIgnoredNestedClauses(context.Context, engine.NestedClauseInfo) {
	m.nestedIgnored.Inc()
}

func (m *Metrics) queryFailed(code string) {
	m.queryErrors.WithLabelValues(code).Inc()
}

// middleware records request count and latency under the matched route.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
