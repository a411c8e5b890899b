package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	authdomain "github.com/yegamble/goauth-datalayer/internal/domain/auth"
	domain "github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// Service orchestrates user account workflows over the unit of work.
type Service struct {
	uow    authdomain.UnitOfWork
	logger zerolog.Logger
}

// NewService creates a Service with the given dependencies.
func NewService(uow authdomain.UnitOfWork, logger zerolog.Logger) *Service {
	return &Service{
		uow:    uow,
		logger: logger,
	}
}

// Register creates a new active user account.
// Returns domain.ErrEmailAlreadyUsed when the email is taken.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*UserRead, error) {
	email, err := domain.NewEmail(input.Email)
	if err != nil {
		return nil, err
	}

	hash, err := domain.NewHashedPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := domain.NewUser(email, hash, input.FullName, now)
	if err != nil {
		return nil, err
	}

	var created *domain.User
	err = s.uow.WithinTx(ctx, func(tx authdomain.RepoSet) error {
		exists, err := tx.Users().EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return domain.ErrEmailAlreadyUsed
		}

		// insert + activate stay locally atomic under the surrounding tx
		return tx.Savepoint(ctx, func() error {
			created, err = tx.Users().Create(ctx, user)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			if err := tx.Users().SetActive(ctx, created.ID(), true); err != nil {
				return fmt.Errorf("activate user: %w", err)
			}
			created.Activate(now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", created.ID()).
		Str("email", created.Email().String()).
		Msg("user registered")

	read := FromDomain(created)
	return &read, nil
}

// Authenticate verifies the email/password pair and returns the user.
// ErrUserNotFound and ErrWrongPassword are deliberately indistinguishable at
// the transport; both map to invalid_credentials. The bcrypt verifier is
// always consulted, never a raw string comparison.
func (s *Service) Authenticate(ctx context.Context, rawEmail, password string) (*domain.User, error) {
	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		// unparseable email can never match a stored (validated) address
		return nil, domain.ErrUserNotFound
	}

	var user *domain.User
	err = s.uow.WithinTx(ctx, func(tx authdomain.RepoSet) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := user.VerifyPassword(password); err != nil {
		s.logger.Warn().
			Int64("user_id", user.ID()).
			Msg("login attempt with wrong password")
		return nil, err
	}

	return user, nil
}

// Get returns the user by id for the authenticated-profile read.
// Returns domain.ErrCurrentUserNotFound when the row is gone.
func (s *Service) Get(ctx context.Context, userID int64) (*UserRead, error) {
	var user *domain.User
	err := s.uow.WithinTx(ctx, func(tx authdomain.RepoSet) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrCurrentUserNotFound
		}
		return nil, err
	}

	read := FromDomain(user)
	return &read, nil
}

// ChangePassword verifies the current password, stores the new verifier and
// revokes every outstanding session and refresh credential of the user.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	newHash, err := domain.NewHashedPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = s.uow.WithinTx(ctx, func(tx authdomain.RepoSet) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := user.VerifyPassword(currentPassword); err != nil {
			return err
		}

		if err := tx.Users().SetPassword(ctx, userID, newHash); err != nil {
			return fmt.Errorf("set password: %w", err)
		}

		if _, err := tx.Refresh().RevokeAllForUser(ctx, userID, authdomain.RevokeReasonPasswordChange, now); err != nil {
			return fmt.Errorf("revoke refresh credentials: %w", err)
		}
		if _, err := tx.Sessions().RevokeAllForUser(ctx, userID, authdomain.RevokeReasonPasswordChange, now); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Msg("password changed, all sessions revoked")

	return nil
}
