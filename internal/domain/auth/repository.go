package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// SessionRepository is the persistence capability for Session records.
// All methods run against the caller's current transaction.
type SessionRepository interface {
	// CreateSession inserts a new session and returns it with the assigned ID.
	CreateSession(ctx context.Context, session *Session) (*Session, error)

	// GetBySessionID retrieves a session by its public UUID.
	// Returns ErrSessionNotFound when no row matches.
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*Session, error)

	// ListActiveByUser returns the user's non-revoked sessions ordered by
	// last_seen_at descending. An empty slice is a valid result.
	ListActiveByUser(ctx context.Context, userID int64) ([]*Session, error)

	// Touch advances last_seen_at for a non-revoked session.
	// Returns the affected row count (0 or 1).
	Touch(ctx context.Context, sessionID uuid.UUID, when time.Time) (int64, error)

	// RevokeSession revokes a session if it is not already revoked.
	// Idempotent: zero affected rows is not an error.
	RevokeSession(ctx context.Context, sessionID uuid.UUID, reason RevokeReason, when time.Time) (int64, error)

	// RevokeAllForUser revokes every non-revoked session owned by the user.
	// Returns the affected row count.
	RevokeAllForUser(ctx context.Context, userID int64, reason RevokeReason, when time.Time) (int64, error)

	// DeleteExpired removes sessions revoked longer than the retention window
	// ago. Used by the background cleanup worker.
	DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// RotateParams carries the inputs of the atomic rotation procedure.
type RotateParams struct {
	OldTokenHash string
	NewJTI       uuid.UUID
	NewTokenHash string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Now          time.Time
}

// RefreshRepository is the persistence capability for RefreshCredential
// records. All methods run against the caller's current transaction.
type RefreshRepository interface {
	// CreateRefresh inserts a new credential and returns it with the assigned ID.
	CreateRefresh(ctx context.Context, credential *RefreshCredential) (*RefreshCredential, error)

	// GetByJTI retrieves a credential by its unique token identifier.
	// Returns ErrRefreshNotActive when no row matches.
	GetByJTI(ctx context.Context, jti uuid.UUID) (*RefreshCredential, error)

	// GetActiveByHash retrieves a credential by token hash, applying the
	// active predicate at the given instant.
	// Returns ErrRefreshNotActive when no active row matches.
	GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*RefreshCredential, error)

	// RevokeByJTI revokes a single credential. Idempotent.
	RevokeByJTI(ctx context.Context, jti uuid.UUID, reason RevokeReason, when time.Time) (int64, error)

	// RevokeFamily revokes every non-revoked credential in the family,
	// including used predecessors. Returns the affected row count.
	RevokeFamily(ctx context.Context, familyID uuid.UUID, reason RevokeReason, when time.Time) (int64, error)

	// RevokeBySession revokes every non-revoked credential bound to the session.
	RevokeBySession(ctx context.Context, sessionID uuid.UUID, reason RevokeReason, when time.Time) (int64, error)

	// RevokeAllForUser revokes every non-revoked credential owned by the user.
	RevokeAllForUser(ctx context.Context, userID int64, reason RevokeReason, when time.Time) (int64, error)

	// RotateActive atomically consumes the active credential matching
	// OldTokenHash (setting used_at, replaced_by_jti and reason "rotated")
	// and inserts its successor with the same user, family and session.
	// Two concurrent calls on the same hash yield exactly one success; the
	// loser gets ErrRefreshNotActive and never inserts. Infrastructure
	// failures surface as ErrRefreshRotate.
	RotateActive(ctx context.Context, params RotateParams) (*RefreshCredential, error)

	// DeleteExpired removes credentials that expired or were revoked longer
	// than the retention window ago.
	DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// RepoSet exposes the repositories bound to one open transaction.
type RepoSet interface {
	Users() identity.UserRepository
	Sessions() SessionRepository
	Refresh() RefreshRepository

	// Savepoint runs fn inside a nested savepoint scope: released on nil,
	// rolled back (and the error re-raised) on failure, without aborting the
	// surrounding transaction.
	Savepoint(ctx context.Context, fn func() error) error
}

// UnitOfWork scopes one logical transaction. WithinTx opens a transaction,
// invokes fn with the bound repositories, commits when fn returns nil and
// rolls back otherwise; the underlying resource is always released.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx RepoSet) error) error
}
