package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for request ID.
	RequestIDKey contextKey = "requestID"

	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "userID"

	// SessionIDKey is the context key for the session ID (sid claim).
	SessionIDKey contextKey = "sessionID"

	// VerifiedTokenKey is the context key for the verified bearer token.
	VerifiedTokenKey contextKey = "verifiedToken"
)

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID adds a request ID to the context.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) (int64, bool) {
	if userID, ok := ctx.Value(UserIDKey).(int64); ok {
		return userID, true
	}
	return 0, false
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) (uuid.UUID, bool) {
	if sessionID, ok := ctx.Value(SessionIDKey).(uuid.UUID); ok {
		return sessionID, true
	}
	return uuid.Nil, false
}

// GetVerifiedToken retrieves the verified bearer token from the context.
func GetVerifiedToken(ctx context.Context) (*token.VerifiedToken, bool) {
	if verified, ok := ctx.Value(VerifiedTokenKey).(*token.VerifiedToken); ok {
		return verified, true
	}
	return nil, false
}

// SetAuthContext stores the verification result for downstream handlers.
func SetAuthContext(ctx context.Context, userID int64, sessionID uuid.UUID, verified *token.VerifiedToken) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, SessionIDKey, sessionID)
	ctx = context.WithValue(ctx, VerifiedTokenKey, verified)
	return ctx
}
