package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
	"github.com/yegamble/goauth-datalayer/internal/interfaces/http/middleware"
)

// APIPrefix is the versioned route prefix of the auth API.
const APIPrefix = "/auth_api/v1"

// requestTimeout bounds every request end to end.
const requestTimeout = 30 * time.Second

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	AuthHandler   *AuthHandler
	UserHandler   *UserHandler
	HealthHandler *HealthHandler

	Extractor        *token.Extractor
	Codec            *token.Codec
	MetricsCollector *middleware.MetricsCollector
	Logger           zerolog.Logger
	IsProd           bool
}

// NewRouter creates the chi router with all routes and middleware configured.
//
// Middleware order:
//  1. RequestID - correlation ID
//  2. Metrics - Prometheus collection
//  3. Logger - structured request/response logging
//  4. Recovery - panic recovery
//  5. SecurityHeaders / CORS
//  6. Timeout
//
// Route groups:
//   - /health, /health/ready, /metrics (no authentication)
//   - /auth_api/v1 public: users/register, auth/login
//   - /auth_api/v1 Bearer refresh: auth/refresh, auth/logout
//   - /auth_api/v1 Bearer access: users/me, auth/logout-all, auth/sessions
//
//nolint:ireturn // Returning chi.Router is chi's standard pattern
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.MetricsCollector != nil {
		r.Use(middleware.MetricsMiddleware(cfg.MetricsCollector))
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))

	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsProd)))

	var corsCfg middleware.CORSConfig
	if cfg.IsProd {
		corsCfg = middleware.DefaultCORSConfig()
	} else {
		corsCfg = middleware.DevelopmentCORSConfig()
	}
	r.Use(middleware.CORS(corsCfg))

	r.Use(chimiddleware.Timeout(requestTimeout))

	// probes and metrics, unauthenticated
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/health/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	accessAuth := middleware.RequireToken(middleware.AuthConfig{
		Extractor:             cfg.Extractor,
		ExpectedType:          cfg.Codec.AccessType(),
		WrongTypeUnauthorized: true,
		MetricsCollector:      cfg.MetricsCollector,
		Logger:                cfg.Logger,
	})
	refreshAuth := middleware.RequireToken(middleware.AuthConfig{
		Extractor:        cfg.Extractor,
		ExpectedType:     cfg.Codec.RefreshType(),
		MetricsCollector: cfg.MetricsCollector,
		Logger:           cfg.Logger,
	})

	r.Route(APIPrefix, func(r chi.Router) {
		// public endpoints
		r.Post("/users/register", cfg.UserHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// endpoints authenticated by the refresh credential itself
		r.Group(func(r chi.Router) {
			r.Use(refreshAuth)
			r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
		})

		// endpoints requiring a live access credential
		r.Group(func(r chi.Router) {
			r.Use(accessAuth)
			r.Get("/users/me", cfg.UserHandler.Me)
			r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)
			r.Get("/auth/sessions", cfg.AuthHandler.Sessions)
		})
	})

	return r
}
