package auth

import (
	"time"

	"github.com/google/uuid"
)

// maxUserAgentLen bounds the stored user agent string.
const maxUserAgentLen = 255

// Session is one device/browser binding for a user. The surrogate ID is
// assigned by the database; SessionID is the public handle carried in token
// claims (sid).
type Session struct {
	ID            int64
	SessionID     uuid.UUID
	UserID        int64
	UserAgent     *string
	IPAddress     *string
	CreatedAt     time.Time
	LastSeenAt    *time.Time
	RevokedAt     *time.Time
	RevokedReason *RevokeReason
}

// NewSession builds a session record for a fresh login. last_seen_at starts
// at creation time so it is monotonic from the first row.
func NewSession(userID int64, sessionID uuid.UUID, userAgent, ipAddress *string, now time.Time) *Session {
	if userAgent != nil {
		truncated := TruncateUserAgent(*userAgent)
		userAgent = &truncated
	}
	seen := now
	return &Session{
		SessionID:  sessionID,
		UserID:     userID,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		CreatedAt:  now,
		LastSeenAt: &seen,
	}
}

// IsRevoked reports whether the session reached its terminal state.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// Touch advances last_seen_at. It refuses to run on a revoked session and
// never moves the timestamp backwards, keeping last_seen_at monotonically
// non-decreasing while the session is live.
func (s *Session) Touch(when time.Time) error {
	if s.IsRevoked() {
		return ErrSessionRevoked
	}
	if s.LastSeenAt == nil || when.After(*s.LastSeenAt) {
		s.LastSeenAt = &when
	}
	return nil
}

// Revoke moves the session to its terminal state. revoked_at and
// revoked_reason are set together and are immutable afterwards: revoking an
// already-revoked session is a no-op.
func (s *Session) Revoke(reason RevokeReason, when time.Time) {
	if s.IsRevoked() {
		return
	}
	s.RevokedAt = &when
	s.RevokedReason = &reason
}

// TruncateUserAgent bounds a raw User-Agent header to the stored column width.
func TruncateUserAgent(ua string) string {
	if len(ua) > maxUserAgentLen {
		return ua[:maxUserAgentLen]
	}
	return ua
}
