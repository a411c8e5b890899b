package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// RefreshCredential is one issued refresh token. Only the SHA-256 hex digest
// of the serialized token is stored; jti identifies the credential, family_id
// ties the rotation chain together, session_id binds it to a device.
type RefreshCredential struct {
	ID            int64
	UserID        int64
	JTI           uuid.UUID
	FamilyID      uuid.UUID
	SessionID     uuid.UUID
	TokenHash     string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	UsedAt        *time.Time
	RevokedAt     *time.Time
	RevokedReason *RevokeReason
	ReplacedByJTI *uuid.UUID
}

// Active reports whether the credential may still be redeemed at the given
// instant. The predicate is computable from local columns only:
// used_at IS NULL AND revoked_at IS NULL AND expires_at > now.
func (c *RefreshCredential) Active(now time.Time) bool {
	return c.UsedAt == nil && c.RevokedAt == nil && c.ExpiresAt.After(now)
}

// MarkRotated consumes the credential as the predecessor of a rotation.
// used_at is set exactly once; revoked_at stays NULL so the row is
// distinguishable from an actively revoked credential.
func (c *RefreshCredential) MarkRotated(successor uuid.UUID, when time.Time) {
	c.UsedAt = &when
	c.ReplacedByJTI = &successor
	reason := RevokeReasonRotated
	c.RevokedReason = &reason
}

// Revoke moves the credential to its revoked terminal state. Idempotent.
func (c *RefreshCredential) Revoke(reason RevokeReason, when time.Time) {
	if c.RevokedAt != nil {
		return
	}
	c.RevokedAt = &when
	c.RevokedReason = &reason
}

// HashToken returns the SHA-256 hex digest of a serialized token string, the
// form in which refresh tokens are persisted and looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
