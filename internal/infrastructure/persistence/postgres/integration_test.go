package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/postgres"
	"github.com/yegamble/goauth-datalayer/migrations"
)

// newTestDB starts a PostgreSQL 16 testcontainer and applies the embedded
// migrations. Integration tests are skipped in short mode (no Docker).
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db.DB, "."))

	return db
}

// seedIntegrationUser inserts an active user and returns its ID.
func seedIntegrationUser(t *testing.T, uow *postgres.UnitOfWork) int64 {
	t.Helper()

	email, err := identity.NewEmail("it@example.com")
	require.NoError(t, err)
	hash, err := identity.NewHashedPassword("Passw0rd!")
	require.NoError(t, err)

	now := time.Now().UTC()
	user, err := identity.NewUser(email, hash, nil, now)
	require.NoError(t, err)

	var id int64
	err = uow.WithinTx(context.Background(), func(tx auth.RepoSet) error {
		created, err := tx.Users().Create(context.Background(), user)
		if err != nil {
			return err
		}
		id = created.ID()
		return tx.Users().SetActive(context.Background(), id, true)
	})
	require.NoError(t, err)
	return id
}

func seedCredential(t *testing.T, uow *postgres.UnitOfWork, userID int64, token string) (*auth.Session, *auth.RefreshCredential) {
	t.Helper()

	now := time.Now().UTC()
	sid := uuid.New()
	session := auth.NewSession(userID, sid, nil, nil, now)
	credential := &auth.RefreshCredential{
		UserID:    userID,
		JTI:       uuid.New(),
		FamilyID:  uuid.New(),
		SessionID: sid,
		TokenHash: auth.HashToken(token),
		IssuedAt:  now,
		ExpiresAt: now.Add(14 * 24 * time.Hour),
	}

	err := uow.WithinTx(context.Background(), func(tx auth.RepoSet) error {
		var err error
		if session, err = tx.Sessions().CreateSession(context.Background(), session); err != nil {
			return err
		}
		credential, err = tx.Refresh().CreateRefresh(context.Background(), credential)
		return err
	})
	require.NoError(t, err)
	return session, credential
}

func TestIntegration_UserRepository(t *testing.T) {
	db := newTestDB(t)
	uow := postgres.NewUnitOfWork(db)
	ctx := context.Background()

	userID := seedIntegrationUser(t, uow)

	err := uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		user, err := tx.Users().GetByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "it@example.com", user.Email().String())
		assert.True(t, user.IsActive())

		email, err := identity.NewEmail("it@example.com")
		require.NoError(t, err)

		exists, err := tx.Users().EmailExists(ctx, email)
		require.NoError(t, err)
		assert.True(t, exists)

		// duplicate insert maps onto the domain error
		hash, err := identity.NewHashedPassword("An0therPass!")
		require.NoError(t, err)
		dupe, err := identity.NewUser(email, hash, nil, time.Now().UTC())
		require.NoError(t, err)
		_, err = tx.Users().Create(ctx, dupe)
		assert.ErrorIs(t, err, identity.ErrEmailAlreadyUsed)

		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_RotateActive(t *testing.T) {
	db := newTestDB(t)
	uow := postgres.NewUnitOfWork(db)
	ctx := context.Background()

	userID := seedIntegrationUser(t, uow)
	_, credential := seedCredential(t, uow, userID, "raw-refresh-1")

	now := time.Now().UTC()
	newJTI := uuid.New()

	// first rotation succeeds
	err := uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		successor, err := tx.Refresh().RotateActive(ctx, auth.RotateParams{
			OldTokenHash: auth.HashToken("raw-refresh-1"),
			NewJTI:       newJTI,
			NewTokenHash: auth.HashToken("raw-refresh-2"),
			IssuedAt:     now,
			ExpiresAt:    now.Add(14 * 24 * time.Hour),
			Now:          now,
		})
		require.NoError(t, err)
		assert.Equal(t, credential.FamilyID, successor.FamilyID)
		assert.Equal(t, credential.SessionID, successor.SessionID)
		assert.Equal(t, newJTI, successor.JTI)
		return nil
	})
	require.NoError(t, err)

	// the predecessor is consumed and linked
	err = uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		predecessor, err := tx.Refresh().GetByJTI(ctx, credential.JTI)
		require.NoError(t, err)
		require.NotNil(t, predecessor.UsedAt)
		require.NotNil(t, predecessor.ReplacedByJTI)
		assert.Equal(t, newJTI, *predecessor.ReplacedByJTI)
		assert.Equal(t, auth.RevokeReasonRotated, *predecessor.RevokedReason)
		assert.Nil(t, predecessor.RevokedAt)
		return nil
	})
	require.NoError(t, err)

	// replaying the consumed hash fails with ErrRefreshNotActive
	err = uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		_, err := tx.Refresh().RotateActive(ctx, auth.RotateParams{
			OldTokenHash: auth.HashToken("raw-refresh-1"),
			NewJTI:       uuid.New(),
			NewTokenHash: auth.HashToken("raw-refresh-3"),
			IssuedAt:     now,
			ExpiresAt:    now.Add(14 * 24 * time.Hour),
			Now:          time.Now().UTC(),
		})
		return err
	})
	require.ErrorIs(t, err, auth.ErrRefreshNotActive)
}

func TestIntegration_RevokeFamilyAndSession(t *testing.T) {
	db := newTestDB(t)
	uow := postgres.NewUnitOfWork(db)
	ctx := context.Background()

	userID := seedIntegrationUser(t, uow)
	session, credential := seedCredential(t, uow, userID, "raw-refresh-a")

	now := time.Now().UTC()
	err := uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		count, err := tx.Refresh().RevokeFamily(ctx, credential.FamilyID, auth.RevokeReasonReuseDetected, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = tx.Sessions().RevokeSession(ctx, session.SessionID, auth.RevokeReasonReuseDetected, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// idempotent: second revocation touches nothing
		count, err = tx.Sessions().RevokeSession(ctx, session.SessionID, auth.RevokeReasonUserLogout, now)
		require.NoError(t, err)
		assert.Zero(t, count)
		return nil
	})
	require.NoError(t, err)

	err = uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		active, err := tx.Sessions().ListActiveByUser(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, active)

		_, err = tx.Refresh().GetActiveByHash(ctx, auth.HashToken("raw-refresh-a"), time.Now().UTC())
		assert.ErrorIs(t, err, auth.ErrRefreshNotActive)
		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_SavepointRollback(t *testing.T) {
	db := newTestDB(t)
	uow := postgres.NewUnitOfWork(db)
	ctx := context.Background()

	userID := seedIntegrationUser(t, uow)

	sid := uuid.New()
	err := uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		// the failed savepoint scope must not poison the surrounding tx
		serr := tx.Savepoint(ctx, func() error {
			dupe := auth.NewSession(userID, sid, nil, nil, time.Now().UTC())
			if _, err := tx.Sessions().CreateSession(ctx, dupe); err != nil {
				return err
			}
			second := auth.NewSession(userID, sid, nil, nil, time.Now().UTC())
			_, err := tx.Sessions().CreateSession(ctx, second) // unique violation
			return err
		})
		require.Error(t, serr)

		// the transaction is still usable after the rolled-back savepoint
		fresh := auth.NewSession(userID, uuid.New(), nil, nil, time.Now().UTC())
		_, err := tx.Sessions().CreateSession(ctx, fresh)
		return err
	})
	require.NoError(t, err)

	err = uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		active, err := tx.Sessions().ListActiveByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, active, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_TouchMonotonic(t *testing.T) {
	db := newTestDB(t)
	uow := postgres.NewUnitOfWork(db)
	ctx := context.Background()

	userID := seedIntegrationUser(t, uow)
	session, _ := seedCredential(t, uow, userID, "raw-refresh-touch")

	later := time.Now().UTC().Add(time.Minute)
	earlier := later.Add(-30 * time.Minute)

	err := uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		count, err := tx.Sessions().Touch(ctx, session.SessionID, later)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// an earlier timestamp never wins
		count, err = tx.Sessions().Touch(ctx, session.SessionID, earlier)
		require.NoError(t, err)
		assert.Zero(t, count)

		got, err := tx.Sessions().GetBySessionID(ctx, session.SessionID)
		require.NoError(t, err)
		require.NotNil(t, got.LastSeenAt)
		assert.WithinDuration(t, later, *got.LastSeenAt, time.Second)
		return nil
	})
	require.NoError(t, err)
}
