package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	ua := "Mozilla/5.0 (Test Browser)"
	ip := "192.168.1.10"

	s := auth.NewSession(7, uuid.New(), &ua, &ip, now)

	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, now, s.CreatedAt)
	require.NotNil(t, s.LastSeenAt)
	assert.Equal(t, now, *s.LastSeenAt)
	assert.Nil(t, s.RevokedAt)
	assert.Nil(t, s.RevokedReason)
}

func TestNewSession_TruncatesUserAgent(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	s := auth.NewSession(1, uuid.New(), &long, nil, time.Now().UTC())

	require.NotNil(t, s.UserAgent)
	assert.Len(t, *s.UserAgent, 255)
}

func TestSession_TouchIsMonotonic(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	s := auth.NewSession(1, uuid.New(), nil, nil, now)

	later := now.Add(time.Minute)
	require.NoError(t, s.Touch(later))
	assert.Equal(t, later, *s.LastSeenAt)

	// a touch with an earlier timestamp never moves last_seen_at backwards
	require.NoError(t, s.Touch(now))
	assert.Equal(t, later, *s.LastSeenAt)
}

func TestSession_TouchRevokedFails(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	s := auth.NewSession(1, uuid.New(), nil, nil, now)
	s.Revoke(auth.RevokeReasonUserLogout, now)

	err := s.Touch(now.Add(time.Minute))
	require.ErrorIs(t, err, auth.ErrSessionRevoked)
}

func TestSession_RevokeSetsBothAndIsImmutable(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	s := auth.NewSession(1, uuid.New(), nil, nil, now)

	s.Revoke(auth.RevokeReasonReuseDetected, now)
	require.True(t, s.IsRevoked())
	require.NotNil(t, s.RevokedReason)
	assert.Equal(t, auth.RevokeReasonReuseDetected, *s.RevokedReason)

	s.Revoke(auth.RevokeReasonAdminForce, now.Add(time.Hour))
	assert.Equal(t, now, *s.RevokedAt)
	assert.Equal(t, auth.RevokeReasonReuseDetected, *s.RevokedReason)
}

func TestParseRevokeReason(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"user_logout", "reuse_detected", "admin_force", "password_change", "rotated"} {
		reason, err := auth.ParseRevokeReason(value)
		require.NoError(t, err)
		assert.Equal(t, value, reason.String())
		assert.True(t, reason.IsValid())
	}

	_, err := auth.ParseRevokeReason("banhammer")
	require.Error(t, err)
}
