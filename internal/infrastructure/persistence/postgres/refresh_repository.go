package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

// SQL queries for refresh-credential operations.
const (
	sqlInsertRefresh = `
		INSERT INTO refreshtokens (user_id, jti, family_id, session_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	sqlSelectRefreshByJTI = `
		SELECT id, user_id, jti, family_id, session_id, token_hash, issued_at, expires_at,
		       used_at, revoked_at, revoked_reason, replaced_by_jti
		FROM refreshtokens
		WHERE jti = $1
	`

	sqlSelectActiveRefreshByHash = `
		SELECT id, user_id, jti, family_id, session_id, token_hash, issued_at, expires_at,
		       used_at, revoked_at, revoked_reason, replaced_by_jti
		FROM refreshtokens
		WHERE token_hash = $1 AND used_at IS NULL AND revoked_at IS NULL AND expires_at > $2
	`

	// The WHERE predicate linearizes concurrent redemptions: the row-level
	// write lock plus used_at/revoked_at IS NULL means exactly one UPDATE
	// observes the active row.
	sqlRotateRefresh = `
		UPDATE refreshtokens
		SET used_at = $2, replaced_by_jti = $3, revoked_reason = 'rotated'
		WHERE token_hash = $1 AND used_at IS NULL AND revoked_at IS NULL AND expires_at > $4
		RETURNING id, user_id, jti, family_id, session_id, token_hash, issued_at, expires_at,
		          used_at, revoked_at, revoked_reason, replaced_by_jti
	`

	sqlRevokeRefreshByJTI = `
		UPDATE refreshtokens
		SET revoked_at = $2, revoked_reason = $3
		WHERE jti = $1 AND revoked_at IS NULL
	`

	sqlRevokeRefreshFamily = `
		UPDATE refreshtokens
		SET revoked_at = $2, revoked_reason = $3
		WHERE family_id = $1 AND revoked_at IS NULL
	`

	sqlRevokeRefreshBySession = `
		UPDATE refreshtokens
		SET revoked_at = $2, revoked_reason = $3
		WHERE session_id = $1 AND revoked_at IS NULL
	`

	sqlRevokeRefreshForUser = `
		UPDATE refreshtokens
		SET revoked_at = $2, revoked_reason = $3
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	sqlDeleteExpiredRefresh = `
		DELETE FROM refreshtokens
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`
)

// refreshRow represents a refresh-credential row in the database.
type refreshRow struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	JTI           string         `db:"jti"`
	FamilyID      string         `db:"family_id"`
	SessionID     string         `db:"session_id"`
	TokenHash     string         `db:"token_hash"`
	IssuedAt      time.Time      `db:"issued_at"`
	ExpiresAt     time.Time      `db:"expires_at"`
	UsedAt        sql.NullTime   `db:"used_at"`
	RevokedAt     sql.NullTime   `db:"revoked_at"`
	RevokedReason sql.NullString `db:"revoked_reason"`
	ReplacedByJTI sql.NullString `db:"replaced_by_jti"`
}

// RefreshRepository implements auth.RefreshRepository for PostgreSQL.
type RefreshRepository struct {
	q queryer
}

// NewRefreshRepository creates a RefreshRepository over the given connection
// or transaction.
func NewRefreshRepository(q queryer) *RefreshRepository {
	return &RefreshRepository{q: q}
}

// CreateRefresh inserts a new credential and returns it with the assigned ID.
func (r *RefreshRepository) CreateRefresh(ctx context.Context, credential *auth.RefreshCredential) (*auth.RefreshCredential, error) {
	var id int64
	err := r.q.GetContext(
		ctx,
		&id,
		sqlInsertRefresh,
		credential.UserID,
		credential.JTI.String(),
		credential.FamilyID.String(),
		credential.SessionID.String(),
		credential.TokenHash,
		credential.IssuedAt,
		credential.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh credential: %w", err)
	}

	created := *credential
	created.ID = id
	return &created, nil
}

// GetByJTI retrieves a credential by its unique token identifier.
func (r *RefreshRepository) GetByJTI(ctx context.Context, jti uuid.UUID) (*auth.RefreshCredential, error) {
	var row refreshRow
	if err := r.q.GetContext(ctx, &row, sqlSelectRefreshByJTI, jti.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrRefreshNotActive
		}
		return nil, fmt.Errorf("failed to get refresh credential: %w", err)
	}
	return rowToRefresh(row)
}

// GetActiveByHash retrieves a credential by token hash, applying the active
// predicate at the given instant.
func (r *RefreshRepository) GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*auth.RefreshCredential, error) {
	var row refreshRow
	if err := r.q.GetContext(ctx, &row, sqlSelectActiveRefreshByHash, tokenHash, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrRefreshNotActive
		}
		return nil, fmt.Errorf("failed to get active refresh credential: %w", err)
	}
	return rowToRefresh(row)
}

// RevokeByJTI revokes a single credential. Idempotent.
func (r *RefreshRepository) RevokeByJTI(ctx context.Context, jti uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeRefreshByJTI, jti.String(), when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh credential: %w", err)
	}
	return rowsAffected(result)
}

// RevokeFamily revokes every non-revoked credential in the family.
func (r *RefreshRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeRefreshFamily, familyID.String(), when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh family: %w", err)
	}
	return rowsAffected(result)
}

// RevokeBySession revokes every non-revoked credential bound to the session.
func (r *RefreshRepository) RevokeBySession(ctx context.Context, sessionID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeRefreshBySession, sessionID.String(), when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh credentials by session: %w", err)
	}
	return rowsAffected(result)
}

// RevokeAllForUser revokes every non-revoked credential owned by the user.
func (r *RefreshRepository) RevokeAllForUser(ctx context.Context, userID int64, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeRefreshForUser, userID, when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh credentials: %w", err)
	}
	return rowsAffected(result)
}

// RotateActive atomically consumes the active credential matching the old
// hash and inserts its successor. The UPDATE's predicate guarantees that of
// two concurrent redemptions exactly one observes a returned row; the loser
// gets ErrRefreshNotActive and its INSERT is never attempted. The token_hash
// unique index rules out a double insert.
func (r *RefreshRepository) RotateActive(ctx context.Context, params auth.RotateParams) (*auth.RefreshCredential, error) {
	var row refreshRow
	err := r.q.GetContext(
		ctx,
		&row,
		sqlRotateRefresh,
		params.OldTokenHash,
		params.Now,
		params.NewJTI.String(),
		params.Now,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrRefreshNotActive
		}
		return nil, fmt.Errorf("%w: consume predecessor: %v", auth.ErrRefreshRotate, err)
	}

	predecessor, err := rowToRefresh(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrRefreshRotate, err)
	}

	successor := &auth.RefreshCredential{
		UserID:    predecessor.UserID,
		JTI:       params.NewJTI,
		FamilyID:  predecessor.FamilyID,
		SessionID: predecessor.SessionID,
		TokenHash: params.NewTokenHash,
		IssuedAt:  params.IssuedAt,
		ExpiresAt: params.ExpiresAt,
	}

	inserted, err := r.CreateRefresh(ctx, successor)
	if err != nil {
		return nil, fmt.Errorf("%w: insert successor: %v", auth.ErrRefreshRotate, err)
	}
	return inserted, nil
}

// DeleteExpired removes credentials that expired or were revoked longer than
// the retention window ago.
func (r *RefreshRepository) DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlDeleteExpiredRefresh, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh credentials: %w", err)
	}
	return rowsAffected(result)
}

// rowToRefresh converts a database row to a domain RefreshCredential.
func rowToRefresh(row refreshRow) (*auth.RefreshCredential, error) {
	jti, err := uuid.Parse(row.JTI)
	if err != nil {
		return nil, fmt.Errorf("invalid jti: %w", err)
	}
	familyID, err := uuid.Parse(row.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("invalid family id: %w", err)
	}
	sessionID, err := uuid.Parse(row.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	credential := &auth.RefreshCredential{
		ID:        row.ID,
		UserID:    row.UserID,
		JTI:       jti,
		FamilyID:  familyID,
		SessionID: sessionID,
		TokenHash: row.TokenHash,
		IssuedAt:  row.IssuedAt,
		ExpiresAt: row.ExpiresAt,
	}

	if row.UsedAt.Valid {
		credential.UsedAt = &row.UsedAt.Time
	}
	if row.RevokedAt.Valid {
		credential.RevokedAt = &row.RevokedAt.Time
	}
	if row.RevokedReason.Valid {
		reason, err := auth.ParseRevokeReason(row.RevokedReason.String)
		if err != nil {
			return nil, err
		}
		credential.RevokedReason = &reason
	}
	if row.ReplacedByJTI.Valid {
		replaced, err := uuid.Parse(row.ReplacedByJTI.String)
		if err != nil {
			return nil, fmt.Errorf("invalid replaced_by_jti: %w", err)
		}
		credential.ReplacedByJTI = &replaced
	}

	return credential, nil
}
