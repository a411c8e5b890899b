package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

func newCredential(t *testing.T, now time.Time) *auth.RefreshCredential {
	t.Helper()
	return &auth.RefreshCredential{
		ID:        1,
		UserID:    42,
		JTI:       uuid.New(),
		FamilyID:  uuid.New(),
		SessionID: uuid.New(),
		TokenHash: auth.HashToken("some.refresh.token"),
		IssuedAt:  now,
		ExpiresAt: now.Add(14 * 24 * time.Hour),
	}
}

func TestRefreshCredential_Active(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name   string
		mutate func(c *auth.RefreshCredential)
		want   bool
	}{
		{
			name:   "fresh credential is active",
			mutate: func(c *auth.RefreshCredential) {},
			want:   true,
		},
		{
			name: "used credential is not active",
			mutate: func(c *auth.RefreshCredential) {
				c.MarkRotated(uuid.New(), now)
			},
			want: false,
		},
		{
			name: "revoked credential is not active",
			mutate: func(c *auth.RefreshCredential) {
				c.Revoke(auth.RevokeReasonUserLogout, now)
			},
			want: false,
		},
		{
			name: "expired credential is not active",
			mutate: func(c *auth.RefreshCredential) {
				c.ExpiresAt = now.Add(-time.Second)
			},
			want: false,
		},
		{
			name: "credential expiring exactly now is not active",
			mutate: func(c *auth.RefreshCredential) {
				c.ExpiresAt = now
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newCredential(t, now)
			tt.mutate(c)
			assert.Equal(t, tt.want, c.Active(now))
		})
	}
}

func TestRefreshCredential_MarkRotated(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	c := newCredential(t, now)
	successor := uuid.New()

	c.MarkRotated(successor, now)

	require.NotNil(t, c.UsedAt)
	assert.Equal(t, now, *c.UsedAt)
	require.NotNil(t, c.ReplacedByJTI)
	assert.Equal(t, successor, *c.ReplacedByJTI)
	require.NotNil(t, c.RevokedReason)
	assert.Equal(t, auth.RevokeReasonRotated, *c.RevokedReason)
	// rotation consumes through used_at, not revoked_at
	assert.Nil(t, c.RevokedAt)
	assert.False(t, c.Active(now))
}

func TestRefreshCredential_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	c := newCredential(t, now)

	c.Revoke(auth.RevokeReasonReuseDetected, now)
	later := now.Add(time.Minute)
	c.Revoke(auth.RevokeReasonAdminForce, later)

	require.NotNil(t, c.RevokedAt)
	assert.Equal(t, now, *c.RevokedAt)
	assert.Equal(t, auth.RevokeReasonReuseDetected, *c.RevokedReason)
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	// stable hex digest of the serialized token
	h1 := auth.HashToken("token-a")
	h2 := auth.HashToken("token-a")
	h3 := auth.HashToken("token-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", h1)
}
