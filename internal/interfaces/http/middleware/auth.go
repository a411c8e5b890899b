package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
)

// AuthConfig holds configuration for the bearer-token middleware.
type AuthConfig struct {
	// Extractor verifies the Authorization header.
	Extractor *token.Extractor

	// ExpectedType is the token type this route requires ("access" or "refresh").
	ExpectedType string

	// WrongTypeUnauthorized reports a type mismatch as 401 instead of 400.
	// Access-protected routes set this: a non-access credential means the
	// caller is simply not authenticated. The refresh endpoints keep the 400
	// invalid_token_type mapping.
	WrongTypeUnauthorized bool

	// MetricsCollector records authentication failures. Optional.
	MetricsCollector *MetricsCollector

	// Logger is used to log authentication events.
	Logger zerolog.Logger
}

// RequireToken creates a middleware that enforces a bearer credential of the
// expected type on every request.
//
// Verification order (stop at first failure):
//  1. Authorization header present and non-empty
//  2. Scheme is case-insensitive "bearer"
//  3. Credential decodes (signature, structure, iat/exp)
//  4. Token type matches the route's expectation
//
// On success the user ID, session ID and verified token are stored in the
// request context. Failures are translated by the single error mapper; the
// credential itself is never logged.
func RequireToken(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			verified, err := cfg.Extractor.Extract(r.Header.Get("Authorization"), cfg.ExpectedType)
			if err != nil {
				if cfg.MetricsCollector != nil {
					cfg.MetricsCollector.RecordAuthFailure(authFailureEvent(err))
				}

				cfg.Logger.Warn().
					Str("event", authFailureEvent(err)).
					Str("path", r.URL.Path).
					Str("request_id", GetRequestID(ctx)).
					Msg("authentication failed")

				if cfg.WrongTypeUnauthorized && errors.Is(err, auth.ErrTokenWrongType) {
					WriteError(w, http.StatusUnauthorized, "invalid_token_type", "Invalid token type.")
					return
				}

				WriteDomainError(w, r, cfg.Logger, err)
				return
			}

			userID, err := verified.Claims.UserID()
			if err != nil {
				cfg.Logger.Warn().
					Str("event", "invalid_user_id_claim").
					Str("path", r.URL.Path).
					Str("request_id", GetRequestID(ctx)).
					Msg("token carries no usable user_id")

				WriteDomainError(w, r, cfg.Logger, err)
				return
			}

			// sid is present on both token types; absence is tolerated here and
			// enforced by the operations that need it.
			sessionID := uuid.Nil
			if sidRaw, ok := verified.Claims.StringClaim("sid"); ok {
				if parsed, err := uuid.Parse(sidRaw); err == nil {
					sessionID = parsed
				}
			}

			ctx = SetAuthContext(ctx, userID, sessionID, verified)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authFailureEvent labels an extraction failure for logs and metrics.
func authFailureEvent(err error) string {
	spec, _ := SpecFor(err)
	return spec.Code
}
