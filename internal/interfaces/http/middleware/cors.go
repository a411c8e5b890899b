package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// Preflight results may be cached for an hour; the allowed surface of an
// auth API does not change at runtime.
const defaultCORSMaxAge = 3600

// CORSConfig holds the cross-origin policy for the auth API.
//
// The browser-facing surface here is narrow: JSON bodies in, JSON bodies
// out, bearer credentials in the Authorization header. The header lists
// below are deliberately exactly that — there are no pagination or
// rate-limit headers to expose on this service.
type CORSConfig struct {
	// AllowedOrigins lists the frontends allowed to call the auth API.
	// Never "*" together with AllowCredentials.
	AllowedOrigins []string

	// AllowedMethods for the auth surface: reads, posts and preflights.
	AllowedMethods []string

	// AllowedHeaders the clients send: the bearer credential, the JSON
	// content type and an optional correlation ID.
	AllowedHeaders []string

	// ExposedHeaders the browser may read back: the correlation ID for
	// support tickets and WWW-Authenticate so clients can distinguish
	// the 401 causes.
	ExposedHeaders []string

	// AllowCredentials permits the Authorization header on cross-origin
	// calls. Required for the token endpoints; incompatible with "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the production policy. Deployments replace
// AllowedOrigins with their actual frontend origins.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"WWW-Authenticate",
		},
		AllowCredentials: true,
		MaxAge:           defaultCORSMaxAge,
	}
}

// DevelopmentCORSConfig returns a permissive policy for local development.
// Credentials stay off because wildcard origins forbid them.
func DevelopmentCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           defaultCORSMaxAge,
	}
}

// CORS creates the cross-origin middleware. Place it after the security
// headers and before the bearer-auth middleware so preflights never hit the
// extractor.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if cfg.AllowCredentials && containsWildcard(cfg.AllowedOrigins) {
		panic("CORS configuration error: AllowCredentials cannot be true when AllowedOrigins contains '*'")
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// containsWildcard checks if the origins list contains "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}
