// Package auth implements the application-layer use cases for login, token
// rotation, logout and session listing. It orchestrates the domain
// repositories through the unit of work and owns the reuse-detection policy.
package auth

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

// TokenPair is returned by login and rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // Always "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // Access token lifetime in seconds
}

// SessionRead is one active session in API responses.
type SessionRead struct {
	SessionID  uuid.UUID  `json:"session_id"`
	UserAgent  *string    `json:"user_agent,omitempty"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// sessionToRead converts a domain session to its API representation.
func sessionToRead(s *domain.Session) SessionRead {
	return SessionRead{
		SessionID:  s.SessionID,
		UserAgent:  s.UserAgent,
		IPAddress:  s.IPAddress,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
	}
}

// LoginInput carries the per-device metadata for a freshly authenticated user.
// The caller has already verified credentials and the active flag.
type LoginInput struct {
	UserID    int64
	UserAgent *string
	IPAddress *string
}
