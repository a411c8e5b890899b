package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegamble/goauth-datalayer/internal/config"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/secrets"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")

	cfg, err := config.Load(context.Background(), secrets.NewEnvProvider())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Service.Addr())
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "RS256", cfg.Token.Algorithm)
	assert.Equal(t, "type", cfg.Token.TypeField)
	assert.Equal(t, "access", cfg.Token.AccessType)
	assert.Equal(t, "refresh", cfg.Token.RefreshType)
	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.Token.RefreshTTL)
	assert.False(t, cfg.Echo)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
	t.Setenv("SERVICE_HOST", "127.0.0.1")
	t.Setenv("SERVICE_PORT", "9001")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "authd")
	t.Setenv("POSTGRES_DB", "authdb")
	t.Setenv("POSTGRES_PASSWORD", "hunter2")
	t.Setenv("JWT_ACCESS_TTL_MIN", "5")
	t.Setenv("JWT_REFRESH_TTL_MIN", "60")
	t.Setenv("ECHO", "1")

	cfg, err := config.Load(context.Background(), secrets.NewEnvProvider())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9001", cfg.Service.Addr())
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "authd", cfg.Postgres.User)
	assert.Equal(t, "authdb", cfg.Postgres.Database)
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	assert.Equal(t, 5*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, time.Hour, cfg.Token.RefreshTTL)
	assert.True(t, cfg.Echo)
}

func TestLoad_RequiresKeyPaths(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")

	_, err := config.Load(context.Background(), secrets.NewEnvProvider())
	require.Error(t, err)
}
