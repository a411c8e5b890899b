package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector holds all Prometheus metrics for the service.
// It provides centralized metric registration and collection.
type MetricsCollector struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	httpRequestSize      *prometheus.HistogramVec
	httpResponseSize     *prometheus.HistogramVec

	// Authentication metrics
	authFailuresTotal *prometheus.CounterVec

	// Database metrics
	dbConnectionsActive prometheus.Gauge
	dbConnectionsIdle   prometheus.Gauge
	dbConnectionsMax    prometheus.Gauge
}

// NewMetricsCollector creates and registers all application metrics with
// Prometheus via promauto and the default registry.
//
// Metrics are organized by subsystem:
//   - http: HTTP server metrics (requests, latency, in-flight)
//   - auth: authentication failures by cause
//   - database: PostgreSQL connection pool metrics
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goauth",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests, labeled by method, path, and status code",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goauth",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path", "status"},
		),

		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "goauth",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being served",
			},
		),

		httpRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goauth",
				Subsystem: "http",
				Name:      "request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{256, 1024, 10240, 102400, 1048576},
			},
			[]string{"method", "path"},
		),

		httpResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goauth",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{256, 1024, 10240, 102400, 1048576},
			},
			[]string{"method", "path", "status"},
		),

		authFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goauth",
				Subsystem: "auth",
				Name:      "failures_total",
				Help:      "Total number of authentication failures, labeled by cause",
			},
			[]string{"cause"},
		),

		dbConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "goauth",
				Subsystem: "database",
				Name:      "connections_active",
				Help:      "Number of active database connections currently in use",
			},
		),

		dbConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "goauth",
				Subsystem: "database",
				Name:      "connections_idle",
				Help:      "Number of idle database connections in the pool",
			},
		),

		dbConnectionsMax: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "goauth",
				Subsystem: "database",
				Name:      "connections_max",
				Help:      "Maximum number of open database connections allowed",
			},
		),
	}
}

// RecordAuthFailure increments the auth failure counter for a cause.
func (mc *MetricsCollector) RecordAuthFailure(cause string) {
	mc.authFailuresTotal.WithLabelValues(cause).Inc()
}

// SetDBPoolStats publishes connection pool gauges. Call periodically or on
// the /metrics scrape path.
func (mc *MetricsCollector) SetDBPoolStats(active, idle, max int) {
	mc.dbConnectionsActive.Set(float64(active))
	mc.dbConnectionsIdle.Set(float64(idle))
	mc.dbConnectionsMax.Set(float64(max))
}

// MetricsMiddleware wraps HTTP handlers to automatically collect request
// metrics: request count, duration, in-flight gauge and payload sizes.
//
// Place it early in the middleware chain (after RequestID but before
// authentication) so auth failures are captured too.
func MetricsMiddleware(collector *MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			collector.httpRequestsInFlight.Inc()
			defer collector.httpRequestsInFlight.Dec()

			if r.ContentLength > 0 {
				collector.httpRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			wrapped := &metricsResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			start := time.Now()
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start).Seconds()

			path := r.URL.Path
			method := r.Method
			status := strconv.Itoa(wrapped.statusCode)

			collector.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			collector.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
			collector.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(wrapped.bytesWritten))
		})
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and
// bytes written.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (mrw *metricsResponseWriter) WriteHeader(statusCode int) {
	if !mrw.wroteHeader {
		mrw.statusCode = statusCode
		mrw.wroteHeader = true
		mrw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !mrw.wroteHeader {
		mrw.WriteHeader(http.StatusOK)
	}
	n, err := mrw.ResponseWriter.Write(b)
	mrw.bytesWritten += int64(n)
	return n, err
}
