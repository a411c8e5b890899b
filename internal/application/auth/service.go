package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
)

// Codec is the bearer-credential codec consumed by the service.
// *token.Codec satisfies it; tests substitute a mock.
type Codec interface {
	Encode(userID int64, tokenType string, extra map[string]any) (token.IssuedToken, error)
	Decode(raw string) (token.Claims, error)
	TypeOf(claims token.Claims) string
	AccessType() string
	RefreshType() string
}

// Service orchestrates login, rotation, logout, logout-all and session
// listing. Each operation runs inside a unit of work; the reuse-detection
// policy (family + session revocation) lives here.
type Service struct {
	uow    domain.UnitOfWork
	codec  Codec
	logger zerolog.Logger
}

// NewService creates a Service with the given dependencies.
func NewService(uow domain.UnitOfWork, codec Codec, logger zerolog.Logger) *Service {
	return &Service{
		uow:    uow,
		codec:  codec,
		logger: logger,
	}
}

// Login creates a session (sid), the first refresh credential of a new
// family (fam/jti), and returns the token pair. The caller has already
// authenticated the user and confirmed the account is active.
func (s *Service) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	sid := uuid.New()
	fam := uuid.New()
	jti := uuid.New()
	now := time.Now().UTC()

	access, err := s.codec.Encode(input.UserID, s.codec.AccessType(), map[string]any{
		"sid": sid.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode access token: %w", err)
	}

	refresh, err := s.codec.Encode(input.UserID, s.codec.RefreshType(), map[string]any{
		"sid": sid.String(),
		"fam": fam.String(),
		"jti": jti.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode refresh token: %w", err)
	}

	session := domain.NewSession(input.UserID, sid, input.UserAgent, input.IPAddress, now)
	credential := &domain.RefreshCredential{
		UserID:    input.UserID,
		JTI:       jti,
		FamilyID:  fam,
		SessionID: sid,
		TokenHash: domain.HashToken(refresh.Token),
		IssuedAt:  refresh.IssuedAt,
		ExpiresAt: refresh.ExpiresAt,
	}

	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if _, err := tx.Sessions().CreateSession(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if _, err := tx.Refresh().CreateRefresh(ctx, credential); err != nil {
			return fmt.Errorf("create refresh credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", input.UserID).
		Str("session_id", sid.String()).
		Str("family_id", fam.String()).
		Msg("user logged in")

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(access.ExpiresAt.Sub(access.IssuedAt).Seconds()),
	}, nil
}

// Rotate redeems a refresh token: the presented credential is consumed
// exactly once and a successor in the same family is issued. A second
// redemption of the same credential revokes the whole family and its
// session, then fails with ErrRefreshReuseDetected.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, err
	}

	if s.codec.TypeOf(claims) != s.codec.RefreshType() {
		return nil, domain.ErrTokenWrongType
	}

	sid, fam, err := sessionAndFamily(claims)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	newJTI := uuid.New()
	newRefresh, err := s.codec.Encode(userID, s.codec.RefreshType(), map[string]any{
		"sid": sid.String(),
		"fam": fam.String(),
		"jti": newJTI.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode refresh token: %w", err)
	}

	newAccess, err := s.codec.Encode(userID, s.codec.AccessType(), map[string]any{
		"sid": sid.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode access token: %w", err)
	}

	now := time.Now().UTC()
	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		_, err := tx.Refresh().RotateActive(ctx, domain.RotateParams{
			OldTokenHash: domain.HashToken(refreshToken),
			NewJTI:       newJTI,
			NewTokenHash: domain.HashToken(newRefresh.Token),
			IssuedAt:     newRefresh.IssuedAt,
			ExpiresAt:    newRefresh.ExpiresAt,
			Now:          now,
		})
		if err != nil {
			return err
		}

		// Touch is best-effort within the same transaction: a session revoked
		// between decode and here simply yields zero affected rows.
		if _, err := tx.Sessions().Touch(ctx, sid, now); err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	})

	if errors.Is(err, domain.ErrRefreshNotActive) {
		// Reuse, revocation, or expiry of the presented credential: revoke the
		// entire family and its session in a transaction of its own, so the
		// escalation survives the failed rotation.
		s.logger.Warn().
			Int64("user_id", userID).
			Str("session_id", sid.String()).
			Str("family_id", fam.String()).
			Msg("refresh reuse detected, revoking token family and session")

		revokeErr := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
			if _, err := tx.Refresh().RevokeFamily(ctx, fam, domain.RevokeReasonReuseDetected, now); err != nil {
				return fmt.Errorf("revoke family: %w", err)
			}
			if _, err := tx.Sessions().RevokeSession(ctx, sid, domain.RevokeReasonReuseDetected, now); err != nil {
				return fmt.Errorf("revoke session: %w", err)
			}
			return nil
		})
		if revokeErr != nil {
			s.logger.Error().
				Err(revokeErr).
				Str("family_id", fam.String()).
				Msg("failed to revoke family after reuse detection")
		}

		return nil, domain.ErrRefreshReuseDetected
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Str("session_id", sid.String()).
		Str("family_id", fam.String()).
		Msg("refresh token rotated")

	return &TokenPair{
		AccessToken:  newAccess.Token,
		RefreshToken: newRefresh.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(newAccess.ExpiresAt.Sub(newAccess.IssuedAt).Seconds()),
	}, nil
}

// LogoutByRefresh revokes the presented refresh credential and its session.
// Idempotent: revoking already-revoked rows affects nothing and succeeds.
func (s *Service) LogoutByRefresh(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return err
	}

	if s.codec.TypeOf(claims) != s.codec.RefreshType() {
		return domain.ErrTokenWrongType
	}

	jtiRaw, ok := claims.StringClaim("jti")
	if !ok {
		return domain.ErrMalformedRefreshToken
	}
	jti, err := uuid.Parse(jtiRaw)
	if err != nil {
		return domain.ErrMalformedRefreshToken
	}

	sidRaw, ok := claims.StringClaim("sid")
	if !ok {
		return domain.ErrMalformedRefreshToken
	}
	sid, err := uuid.Parse(sidRaw)
	if err != nil {
		return domain.ErrMalformedRefreshToken
	}

	now := time.Now().UTC()
	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if _, err := tx.Refresh().RevokeByJTI(ctx, jti, domain.RevokeReasonUserLogout, now); err != nil {
			return fmt.Errorf("revoke refresh credential: %w", err)
		}
		if _, err := tx.Sessions().RevokeSession(ctx, sid, domain.RevokeReasonUserLogout, now); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("session_id", sid.String()).
		Str("jti", jti.String()).
		Msg("user logged out")

	return nil
}

// LogoutAll revokes every refresh credential and session the user owns.
// Outstanding access tokens stay valid until exp; the short access TTL is
// the mitigation. Idempotent.
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	now := time.Now().UTC()

	var tokens, sessions int64
	err := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		var err error
		if tokens, err = tx.Refresh().RevokeAllForUser(ctx, userID, domain.RevokeReasonAdminForce, now); err != nil {
			return fmt.Errorf("revoke refresh credentials: %w", err)
		}
		if sessions, err = tx.Sessions().RevokeAllForUser(ctx, userID, domain.RevokeReasonAdminForce, now); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("tokens_revoked", tokens).
		Int64("sessions_revoked", sessions).
		Msg("user logged out everywhere")

	return nil
}

// ListSessions returns the user's non-revoked sessions, most recently seen
// first. An empty list is a valid result.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]SessionRead, error) {
	var sessions []*domain.Session
	err := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		var err error
		sessions, err = tx.Sessions().ListActiveByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	reads := make([]SessionRead, 0, len(sessions))
	for _, session := range sessions {
		reads = append(reads, sessionToRead(session))
	}
	return reads, nil
}

// sessionAndFamily parses the sid and fam claims of a refresh token.
func sessionAndFamily(claims token.Claims) (sid, fam uuid.UUID, err error) {
	sidRaw, ok := claims.StringClaim("sid")
	if !ok {
		return uuid.Nil, uuid.Nil, domain.ErrMalformedRefreshToken
	}
	sid, err = uuid.Parse(sidRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrMalformedRefreshToken
	}

	famRaw, ok := claims.StringClaim("fam")
	if !ok {
		return uuid.Nil, uuid.Nil, domain.ErrMalformedRefreshToken
	}
	fam, err = uuid.Parse(famRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrMalformedRefreshToken
	}

	return sid, fam, nil
}
