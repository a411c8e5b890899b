package identity_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/yegamble/goauth-datalayer/internal/application/auth"
	"github.com/yegamble/goauth-datalayer/internal/application/auth/testhelpers"
	appidentity "github.com/yegamble/goauth-datalayer/internal/application/identity"
	domain "github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

func newUsersService(t *testing.T) (*appidentity.Service, *testhelpers.MemoryStore) {
	t.Helper()

	store := testhelpers.NewMemoryStore()
	return appidentity.NewService(store.UnitOfWork(), zerolog.Nop()), store
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	service, _ := newUsersService(t)

	fullName := "A"
	user, err := service.Register(context.Background(), appidentity.RegisterInput{
		Email:    "a@x.dev",
		Password: "Passw0rd!",
		FullName: &fullName,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "a@x.dev", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "A", *user.FullName)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	service, _ := newUsersService(t)

	_, err := service.Register(context.Background(), appidentity.RegisterInput{
		Email:    "a@x.dev",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)

	// same address, different case: still taken
	_, err = service.Register(context.Background(), appidentity.RegisterInput{
		Email:    "A@X.dev",
		Password: "Passw0rd!",
	})
	require.ErrorIs(t, err, domain.ErrEmailAlreadyUsed)
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	service, _ := newUsersService(t)

	_, err := service.Register(context.Background(), appidentity.RegisterInput{
		Email:    "not-an-email",
		Password: "Passw0rd!",
	})
	require.ErrorIs(t, err, domain.ErrEmailInvalid)

	_, err = service.Register(context.Background(), appidentity.RegisterInput{
		Email:    "a@x.dev",
		Password: "short",
	})
	require.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestService_Authenticate(t *testing.T) {
	t.Parallel()

	service, store := newUsersService(t)
	seeded := testhelpers.SeedUser(t, store, testhelpers.ValidEmail, testhelpers.ValidPassword)

	user, err := service.Authenticate(context.Background(), testhelpers.ValidEmail, testhelpers.ValidPassword)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID(), user.ID())
	assert.True(t, user.IsActive())

	_, err = service.Authenticate(context.Background(), testhelpers.ValidEmail, "wrong-password")
	require.ErrorIs(t, err, domain.ErrWrongPassword)

	_, err = service.Authenticate(context.Background(), "ghost@x.dev", testhelpers.ValidPassword)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = service.Authenticate(context.Background(), "not-an-email", testhelpers.ValidPassword)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	service, store := newUsersService(t)
	seeded := testhelpers.SeedUser(t, store, testhelpers.ValidEmail, testhelpers.ValidPassword)

	user, err := service.Get(context.Background(), seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, seeded.ID(), user.ID)
	assert.Equal(t, testhelpers.ValidEmail, user.Email)

	_, err = service.Get(context.Background(), 9999)
	require.ErrorIs(t, err, domain.ErrCurrentUserNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemoryStore()
	users := appidentity.NewService(store.UnitOfWork(), zerolog.Nop())
	sessions := appauth.NewService(store.UnitOfWork(), testhelpers.NewTestCodec(t), zerolog.Nop())
	seeded := testhelpers.SeedUser(t, store, testhelpers.ValidEmail, testhelpers.ValidPassword)

	// an open session that must be revoked by the password change
	ua := testhelpers.ValidUserAgent
	_, err := sessions.Login(context.Background(), appauth.LoginInput{UserID: seeded.ID(), UserAgent: &ua})
	require.NoError(t, err)

	err = users.ChangePassword(context.Background(), seeded.ID(), testhelpers.ValidPassword, "N3w-Passw0rd!")
	require.NoError(t, err)

	// old password no longer works, new one does
	_, err = users.Authenticate(context.Background(), testhelpers.ValidEmail, testhelpers.ValidPassword)
	require.ErrorIs(t, err, domain.ErrWrongPassword)
	_, err = users.Authenticate(context.Background(), testhelpers.ValidEmail, "N3w-Passw0rd!")
	require.NoError(t, err)

	// every session is gone
	list, err := sessions.ListSessions(context.Background(), seeded.ID())
	require.NoError(t, err)
	assert.Empty(t, list)

	// wrong current password is rejected
	err = users.ChangePassword(context.Background(), seeded.ID(), "bogus-current", "An0ther-Pass!")
	require.ErrorIs(t, err, domain.ErrWrongPassword)
}
