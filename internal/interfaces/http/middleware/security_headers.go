package middleware

import (
	"fmt"
	"net/http"
)

// SecurityHeadersConfig holds configuration for the security headers
// middleware.
type SecurityHeadersConfig struct {
	// EnableHSTS enables Strict-Transport-Security. Production only: the
	// whole credential exchange rides on TLS staying mandatory.
	EnableHSTS bool
	// HSTSMaxAge is the max-age value for HSTS (default: 31536000 = 1 year).
	HSTSMaxAge int
	// HSTSIncludeSubDomains adds includeSubDomains to HSTS.
	HSTSIncludeSubDomains bool
}

// DefaultSecurityHeadersConfig returns the defaults for this API.
func DefaultSecurityHeadersConfig(isProd bool) SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:            isProd,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
	}
}

// SecurityHeaders sets the defense headers on every response.
//
// This service speaks JSON only and its responses carry bearer credentials,
// which drives the choices here:
//   - Content-Security-Policy "default-src 'none'": no script, style, image
//     or frame source is ever legitimate for an auth API, so everything is
//     denied rather than selectively allowed.
//   - frame-ancestors 'none' / X-Frame-Options DENY: the endpoints must not
//     be embeddable (login clickjacking).
//   - Cache-Control "no-store" + Pragma "no-cache": token pairs must never
//     land in shared or browser caches; a cached /auth/refresh response is a
//     replayable credential.
//   - Referrer-Policy "no-referrer": URLs under /auth_api must not leak to
//     third parties at all.
//   - X-Content-Type-Options nosniff: JSON stays JSON.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")

			if cfg.EnableHSTS {
				hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
				if cfg.HSTSIncludeSubDomains {
					hsts += "; includeSubDomains"
				}
				h.Set("Strict-Transport-Security", hsts)
			}

			next.ServeHTTP(w, r)
		})
	}
}
