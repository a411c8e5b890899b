package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// healthCheckTimeout bounds each dependency probe on the readiness path.
const healthCheckTimeout = 2 * time.Second

// DependencyCheck probes one external dependency.
type DependencyCheck func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]DependencyCheck
	logger zerolog.Logger
}

// NewHealthHandler creates a HealthHandler over named dependency checks
// (e.g. "database", "redis").
func NewHealthHandler(checks map[string]DependencyCheck, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// Liveness handles GET /health. It only confirms the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	_ = EncodeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready. It probes every registered
// dependency and reports 503 when any of them is unhealthy.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			results[name] = "unhealthy"
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	_ = EncodeJSON(w, status, map[string]any{
		"status":       overall,
		"dependencies": results,
	})
}
