package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

func newTestUser(t *testing.T) *identity.User {
	t.Helper()

	email, err := identity.NewEmail("user@example.com")
	require.NoError(t, err)
	hash, err := identity.NewHashedPassword("Passw0rd!")
	require.NoError(t, err)

	user, err := identity.NewUser(email, hash, nil, time.Now().UTC())
	require.NoError(t, err)
	return user
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	user := newTestUser(t)

	assert.Zero(t, user.ID())
	assert.Equal(t, "user@example.com", user.Email().String())
	assert.False(t, user.IsActive())
	assert.False(t, user.IsSuperuser())
}

func TestNewUser_RequiresEmailAndPassword(t *testing.T) {
	t.Parallel()

	hash, err := identity.NewHashedPassword("Passw0rd!")
	require.NoError(t, err)

	_, err = identity.NewUser(identity.Email{}, hash, nil, time.Now().UTC())
	require.ErrorIs(t, err, identity.ErrEmailEmpty)

	email, err := identity.NewEmail("user@example.com")
	require.NoError(t, err)

	_, err = identity.NewUser(email, identity.HashedPassword{}, nil, time.Now().UTC())
	require.ErrorIs(t, err, identity.ErrPasswordEmpty)
}

func TestUser_ActivateDeactivate(t *testing.T) {
	t.Parallel()

	user := newTestUser(t)
	now := time.Now().UTC()

	user.Activate(now)
	assert.True(t, user.IsActive())

	user.Deactivate(now.Add(time.Minute))
	assert.False(t, user.IsActive())
}

func TestUser_ChangePassword(t *testing.T) {
	t.Parallel()

	user := newTestUser(t)
	now := time.Now().UTC()

	newHash, err := identity.NewHashedPassword("An0therPass!")
	require.NoError(t, err)

	require.NoError(t, user.ChangePassword(newHash, now))
	require.NoError(t, user.VerifyPassword("An0therPass!"))
	require.ErrorIs(t, user.VerifyPassword("Passw0rd!"), identity.ErrWrongPassword)

	require.ErrorIs(t, user.ChangePassword(identity.HashedPassword{}, now), identity.ErrPasswordEmpty)
}
