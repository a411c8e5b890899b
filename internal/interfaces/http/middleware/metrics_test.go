package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// newTestCollector builds a collector over a private registry so tests never
// collide with the promauto default registry.
func newTestCollector(prefix string) *MetricsCollector {
	return &MetricsCollector{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "_http_requests_total"},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 1, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: prefix + "_http_requests_in_flight"},
		),
		httpRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_size_bytes",
				Buckets: []float64{1024, 10240},
			},
			[]string{"method", "path"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_response_size_bytes",
				Buckets: []float64{1024, 10240},
			},
			[]string{"method", "path", "status"},
		),
		authFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "_auth_failures_total"},
			[]string{"cause"},
		),
		dbConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: prefix + "_db_connections_active"},
		),
		dbConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: prefix + "_db_connections_idle"},
		),
		dbConnectionsMax: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: prefix + "_db_connections_max"},
		),
	}
}

func TestMetricsMiddleware_RecordsRequest(t *testing.T) {
	collector := newTestCollector("test1")

	handler := MetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	count := testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/test", "200"))
	assert.InDelta(t, float64(1), count, 0.001)
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	testCases := []struct {
		name           string
		prefix         string
		statusCode     int
		expectedStatus string
	}{
		{"Success 200", "test2a", http.StatusOK, "200"},
		{"Created 201", "test2b", http.StatusCreated, "201"},
		{"Unauthorized 401", "test2c", http.StatusUnauthorized, "401"},
		{"Internal Server Error 500", "test2d", http.StatusInternalServerError, "500"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector := newTestCollector(tc.prefix)

			handler := MetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))

			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.statusCode, rec.Code)
			count := testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("POST", "/test", tc.expectedStatus))
			assert.InDelta(t, float64(1), count, 0.001)
		})
	}
}

func TestMetricsCollector_RecordAuthFailure(t *testing.T) {
	collector := newTestCollector("test3")

	collector.RecordAuthFailure("token_expired")
	collector.RecordAuthFailure("token_expired")
	collector.RecordAuthFailure("invalid_auth_scheme")

	assert.InDelta(t, float64(2), testutil.ToFloat64(collector.authFailuresTotal.WithLabelValues("token_expired")), 0.001)
	assert.InDelta(t, float64(1), testutil.ToFloat64(collector.authFailuresTotal.WithLabelValues("invalid_auth_scheme")), 0.001)
}

func TestMetricsCollector_SetDBPoolStats(t *testing.T) {
	collector := newTestCollector("test4")

	collector.SetDBPoolStats(7, 3, 25)

	assert.InDelta(t, float64(7), testutil.ToFloat64(collector.dbConnectionsActive), 0.001)
	assert.InDelta(t, float64(3), testutil.ToFloat64(collector.dbConnectionsIdle), 0.001)
	assert.InDelta(t, float64(25), testutil.ToFloat64(collector.dbConnectionsMax), 0.001)
}
