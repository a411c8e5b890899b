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

// SQL queries for session operations.
const (
	sqlInsertSession = `
		INSERT INTO authsessions (session_id, user_id, user_agent, ip_address, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	sqlSelectSessionByID = `
		SELECT id, session_id, user_id, user_agent, ip_address, created_at, last_seen_at, revoked_at, revoked_reason
		FROM authsessions
		WHERE session_id = $1
	`

	sqlSelectActiveSessionsByUser = `
		SELECT id, session_id, user_id, user_agent, ip_address, created_at, last_seen_at, revoked_at, revoked_reason
		FROM authsessions
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY last_seen_at DESC
	`

	sqlTouchSession = `
		UPDATE authsessions
		SET last_seen_at = $2
		WHERE session_id = $1 AND revoked_at IS NULL AND (last_seen_at IS NULL OR last_seen_at <= $2)
	`

	sqlRevokeSession = `
		UPDATE authsessions
		SET revoked_at = $2, revoked_reason = $3
		WHERE session_id = $1 AND revoked_at IS NULL
	`

	sqlRevokeSessionsForUser = `
		UPDATE authsessions
		SET revoked_at = $2, revoked_reason = $3
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	sqlDeleteExpiredSessions = `
		DELETE FROM authsessions
		WHERE revoked_at IS NOT NULL AND revoked_at < $1
	`
)

// sessionRow represents a session row in the database.
type sessionRow struct {
	ID            int64          `db:"id"`
	SessionID     string         `db:"session_id"`
	UserID        int64          `db:"user_id"`
	UserAgent     sql.NullString `db:"user_agent"`
	IPAddress     sql.NullString `db:"ip_address"`
	CreatedAt     time.Time      `db:"created_at"`
	LastSeenAt    sql.NullTime   `db:"last_seen_at"`
	RevokedAt     sql.NullTime   `db:"revoked_at"`
	RevokedReason sql.NullString `db:"revoked_reason"`
}

// SessionRepository implements auth.SessionRepository for PostgreSQL.
type SessionRepository struct {
	q queryer
}

// NewSessionRepository creates a SessionRepository over the given connection
// or transaction.
func NewSessionRepository(q queryer) *SessionRepository {
	return &SessionRepository{q: q}
}

// CreateSession inserts a new session and returns it with the assigned ID.
func (r *SessionRepository) CreateSession(ctx context.Context, session *auth.Session) (*auth.Session, error) {
	var userAgent, ipAddress sql.NullString
	if session.UserAgent != nil {
		userAgent = sql.NullString{String: *session.UserAgent, Valid: true}
	}
	if session.IPAddress != nil {
		ipAddress = sql.NullString{String: *session.IPAddress, Valid: true}
	}

	var id int64
	err := r.q.GetContext(
		ctx,
		&id,
		sqlInsertSession,
		session.SessionID.String(),
		session.UserID,
		userAgent,
		ipAddress,
		session.CreatedAt,
		session.LastSeenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	created := *session
	created.ID = id
	return &created, nil
}

// GetBySessionID retrieves a session by its public UUID.
func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*auth.Session, error) {
	var row sessionRow
	if err := r.q.GetContext(ctx, &row, sqlSelectSessionByID, sessionID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return rowToSession(row)
}

// ListActiveByUser returns the user's non-revoked sessions, most recently
// seen first.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*auth.Session, error) {
	var rows []sessionRow
	if err := r.q.SelectContext(ctx, &rows, sqlSelectActiveSessionsByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*auth.Session, 0, len(rows))
	for _, row := range rows {
		session, err := rowToSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Touch advances last_seen_at for a non-revoked session. The predicate keeps
// the column monotonically non-decreasing.
func (r *SessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlTouchSession, sessionID.String(), when)
	if err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}
	return rowsAffected(result)
}

// RevokeSession revokes a session if not already revoked. Idempotent.
func (r *SessionRepository) RevokeSession(ctx context.Context, sessionID uuid.UUID, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeSession, sessionID.String(), when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke session: %w", err)
	}
	return rowsAffected(result)
}

// RevokeAllForUser revokes every non-revoked session owned by the user.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID int64, reason auth.RevokeReason, when time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlRevokeSessionsForUser, userID, when, reason.String())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return rowsAffected(result)
}

// DeleteExpired removes sessions revoked longer than the retention window ago.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	result, err := r.q.ExecContext(ctx, sqlDeleteExpiredSessions, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return rowsAffected(result)
}

// rowToSession converts a database row to a domain Session.
func rowToSession(row sessionRow) (*auth.Session, error) {
	sessionID, err := uuid.Parse(row.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	session := &auth.Session{
		ID:        row.ID,
		SessionID: sessionID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}

	if row.UserAgent.Valid {
		session.UserAgent = &row.UserAgent.String
	}
	if row.IPAddress.Valid {
		session.IPAddress = &row.IPAddress.String
	}
	if row.LastSeenAt.Valid {
		session.LastSeenAt = &row.LastSeenAt.Time
	}
	if row.RevokedAt.Valid {
		session.RevokedAt = &row.RevokedAt.Time
	}
	if row.RevokedReason.Valid {
		reason, err := auth.ParseRevokeReason(row.RevokedReason.String)
		if err != nil {
			return nil, err
		}
		session.RevokedReason = &reason
	}

	return session, nil
}

// rowsAffected unwraps sql.Result with a consistent error message.
func rowsAffected(result sql.Result) (int64, error) {
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}
