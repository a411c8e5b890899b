package asynq_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobsasynq "github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/asynq"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/tasks"
)

func testBrokerAddr(t *testing.T) string {
	t.Helper()
	return miniredis.RunT(t).Addr()
}

func TestNewServer_RequiresBrokerAddr(t *testing.T) {
	t.Parallel()

	_, err := jobsasynq.NewServer(jobsasynq.ServerConfig{Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestDefaultServerConfig(t *testing.T) {
	t.Parallel()

	cfg := jobsasynq.DefaultServerConfig("localhost:6379", zerolog.Nop())

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestNewServer_AppliesDefaults(t *testing.T) {
	t.Parallel()

	// zero concurrency and timeout fall back to the worker defaults
	server, err := jobsasynq.NewServer(jobsasynq.ServerConfig{
		RedisAddr: testBrokerAddr(t),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.NotNil(t, server)
}

func TestServer_HandlePurgeTask(t *testing.T) {
	t.Parallel()

	server, err := jobsasynq.NewServer(jobsasynq.ServerConfig{
		RedisAddr: testBrokerAddr(t),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	// registering the purge handler must not invoke it
	invoked := false
	server.Handle(tasks.TypeAuthPurgeExpired, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		invoked = true
		return nil
	}))
	assert.False(t, invoked)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	server, err := jobsasynq.NewServer(jobsasynq.ServerConfig{
		RedisAddr:       testBrokerAddr(t),
		ShutdownTimeout: time.Second,
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, err)

	// shutdown without a running server must not panic
	server.Shutdown()
}
