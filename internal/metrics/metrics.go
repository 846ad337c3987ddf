// Package metrics defines the Prometheus instruments exported on /metrics.
// All methods are safe to call on a nil receiver so components can run
// without metrics in tests and the CLI.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics tracks analysis volume, latency and provider health
type BusinessMetrics struct {
	analyses          *prometheus.CounterVec
	analysisDuration  *prometheus.HistogramVec
	overallScore      prometheus.Histogram
	providerFallbacks *prometheus.CounterVec
	providerCache     *prometheus.CounterVec
	jobs              *prometheus.CounterVec
}

// NewBusinessMetrics registers the business metrics on the default registerer
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &BusinessMetrics{
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed content analyses by scoring source and content type.",
		}, []string{"source", "content_type"}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency by scoring source.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"source"}),
		overallScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall content scores.",
			Buckets:   prometheus.LinearBuckets(15, 10, 9),
		}),
		providerFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fallbacks_total",
			Help:      "Provider calls that fell back to heuristic scoring.",
		}, []string{"provider", "reason"}),
		providerCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cache_total",
			Help:      "Provider result cache lookups.",
		}, []string{"result"}),
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Queue tasks processed by task type and outcome.",
		}, []string{"task", "status"}),
	}
}

// RecordAnalysis counts one analysis and observes its latency and score.
// The latency sample carries the trace id as an exemplar when one exists.
func (m *BusinessMetrics) RecordAnalysis(ctx context.Context, source, contentType string, score int, duration time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(source, contentType).Inc()
	m.overallScore.Observe(float64(score))

	observer := m.analysisDuration.WithLabelValues(source)
	sc := trace.SpanContextFromContext(ctx)
	if exemplar, ok := observer.(prometheus.ExemplarObserver); ok && sc.HasTraceID() {
		exemplar.ObserveWithExemplar(duration.Seconds(), prometheus.Labels{"trace_id": sc.TraceID().String()})
		return
	}
	observer.Observe(duration.Seconds())
}

// RecordFallback counts a provider failure answered by the heuristic engine
func (m *BusinessMetrics) RecordFallback(provider, reason string) {
	if m == nil {
		return
	}
	m.providerFallbacks.WithLabelValues(provider, reason).Inc()
}

// RecordCache counts a cache hit or miss
func (m *BusinessMetrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.providerCache.WithLabelValues(result).Inc()
}

// RecordJob counts a processed queue task
func (m *BusinessMetrics) RecordJob(task, status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(task, status).Inc()
}

// HTTPMetrics tracks request counts and latency
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the default registerer
func NewHTTPMetrics(namespace string) *HTTPMetrics {
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records every request passing through next
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := RoutePath(r.URL.Path)
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RoutePath replaces id segments with ":id" to keep label cardinality bounded
func RoutePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if _, err := uuid.Parse(s); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// DatabaseMetrics exposes connection pool statistics
type DatabaseMetrics struct {
	openConnections *prometheus.GaugeVec
	waitCount       prometheus.Gauge
	waitDuration    prometheus.Gauge
}

// NewDatabaseMetrics registers the database pool gauges
func NewDatabaseMetrics(namespace string) *DatabaseMetrics {
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &DatabaseMetrics{
		openConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connections",
			Help:      "Database connections by state.",
		}, []string{"state"}),
		waitCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "wait_count",
			Help:      "Total connections waited for.",
		}),
		waitDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "wait_duration_seconds",
			Help:      "Total time blocked waiting for a connection.",
		}),
	}
}

// UpdateDBStats copies the current pool statistics into the gauges
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	stats := db.Stats()
	m.openConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.openConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.openConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
	m.waitDuration.Set(stats.WaitDuration.Seconds())
}
