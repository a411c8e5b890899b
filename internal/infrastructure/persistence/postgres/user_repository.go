package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// SQL queries for user operations.
const (
	sqlInsertUser = `
		INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	sqlSelectUserByID = `
		SELECT id, email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	sqlSelectUserByEmail = `
		SELECT id, email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	sqlUserEmailExists = `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`

	sqlUpdateUserActive = `
		UPDATE users
		SET is_active = $2, updated_at = $3
		WHERE id = $1
	`

	sqlUpdateUserPassword = `
		UPDATE users
		SET hashed_password = $2, updated_at = $3
		WHERE id = $1
	`
)

// userRow represents a user row in the database.
type userRow struct {
	ID             int64          `db:"id"`
	Email          string         `db:"email"`
	HashedPassword string         `db:"hashed_password"`
	FullName       sql.NullString `db:"full_name"`
	IsActive       bool           `db:"is_active"`
	IsSuperuser    bool           `db:"is_superuser"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// UserRepository implements identity.UserRepository for PostgreSQL.
type UserRepository struct {
	q queryer
}

// NewUserRepository creates a UserRepository over the given connection or
// transaction.
func NewUserRepository(q queryer) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new user and returns it with the assigned ID.
func (r *UserRepository) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	var fullName sql.NullString
	if user.FullName() != nil {
		fullName = sql.NullString{String: *user.FullName(), Valid: true}
	}

	var id int64
	err := r.q.GetContext(
		ctx,
		&id,
		sqlInsertUser,
		user.Email().String(),
		user.HashedPassword().String(),
		fullName,
		user.IsActive(),
		user.IsSuperuser(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "users_email_key" {
			return nil, identity.ErrEmailAlreadyUsed
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return identity.ReconstructUser(
		id,
		user.Email(),
		user.HashedPassword(),
		user.FullName(),
		user.IsActive(),
		user.IsSuperuser(),
		user.CreatedAt(),
		user.UpdatedAt(),
	), nil
}

// GetByID retrieves a user by surrogate ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*identity.User, error) {
	var row userRow
	if err := r.q.GetContext(ctx, &row, sqlSelectUserByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	return rowToUser(row)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email identity.Email) (*identity.User, error) {
	var row userRow
	if err := r.q.GetContext(ctx, &row, sqlSelectUserByEmail, email.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return rowToUser(row)
}

// EmailExists reports whether the email is already registered.
func (r *UserRepository) EmailExists(ctx context.Context, email identity.Email) (bool, error) {
	var exists bool
	if err := r.q.GetContext(ctx, &exists, sqlUserEmailExists, email.String()); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// SetActive updates the active flag.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.q.ExecContext(ctx, sqlUpdateUserActive, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// SetPassword replaces the stored password verifier.
func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash identity.HashedPassword) error {
	result, err := r.q.ExecContext(ctx, sqlUpdateUserPassword, id, hash.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// rowToUser converts a database row to a domain User entity.
func rowToUser(row userRow) (*identity.User, error) {
	email, err := identity.NewEmail(row.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid email in row: %w", err)
	}

	hash, err := identity.ParseHashedPassword(row.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("invalid password verifier in row: %w", err)
	}

	var fullName *string
	if row.FullName.Valid {
		fullName = &row.FullName.String
	}

	return identity.ReconstructUser(
		row.ID,
		email,
		hash,
		fullName,
		row.IsActive,
		row.IsSuperuser,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}
