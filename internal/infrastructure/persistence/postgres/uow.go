package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// UnitOfWork scopes one logical transaction over the connection pool.
// WithinTx commits when the callback returns nil, rolls back on any error or
// panic, and always releases the underlying connection.
type UnitOfWork struct {
	db *sqlx.DB
}

// NewUnitOfWork creates a UnitOfWork over the given pool.
func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithinTx implements auth.UnitOfWork.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(tx auth.RepoSet) error) (err error) {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	set := &repoSet{tx: tx}
	if err := fn(set); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// repoSet exposes repositories lazily bound to one open transaction.
type repoSet struct {
	tx *sqlx.Tx

	users     *UserRepository
	sessions  *SessionRepository
	refresh   *RefreshRepository
	savepoint int
}

// Users returns the user repository bound to the transaction.
func (r *repoSet) Users() identity.UserRepository {
	if r.users == nil {
		r.users = NewUserRepository(r.tx)
	}
	return r.users
}

// Sessions returns the session repository bound to the transaction.
func (r *repoSet) Sessions() auth.SessionRepository {
	if r.sessions == nil {
		r.sessions = NewSessionRepository(r.tx)
	}
	return r.sessions
}

// Refresh returns the refresh-credential repository bound to the transaction.
func (r *repoSet) Refresh() auth.RefreshRepository {
	if r.refresh == nil {
		r.refresh = NewRefreshRepository(r.tx)
	}
	return r.refresh
}

// Savepoint runs fn inside a nested savepoint scope. The savepoint is
// released on success and rolled back (with the error re-raised) on failure,
// leaving the surrounding transaction usable.
func (r *repoSet) Savepoint(ctx context.Context, fn func() error) error {
	r.savepoint++
	name := fmt.Sprintf("sp_%d", r.savepoint)

	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback savepoint after %w: %v", err, rbErr)
		}
		return err
	}

	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
