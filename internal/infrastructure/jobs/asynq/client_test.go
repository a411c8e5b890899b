package asynq_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobsasynq "github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/asynq"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/tasks"
)

func newTestClient(t *testing.T) *jobsasynq.Client {
	t.Helper()

	client, err := jobsasynq.NewClient(jobsasynq.ClientConfig{
		RedisAddr: testBrokerAddr(t),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_RequiresBrokerAddr(t *testing.T) {
	t.Parallel()

	client, err := jobsasynq.NewClient(jobsasynq.ClientConfig{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_EnqueuePurgeTask(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	err := client.EnqueueTask(ctx, tasks.TypeAuthPurgeExpired, tasks.AuthPurgePayload{})
	require.NoError(t, err)

	// retention override rides along as the payload
	err = client.EnqueueTask(ctx, tasks.TypeAuthPurgeExpired, tasks.AuthPurgePayload{RetentionHours: 12})
	require.NoError(t, err)
}

func TestClient_EnqueueTaskRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	// a channel cannot be marshaled to JSON
	err := client.EnqueueTask(context.Background(), tasks.TypeAuthPurgeExpired, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal task payload")
}

func TestClient_EnqueueScheduled(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	err := client.EnqueueTaskWithDelay(ctx, tasks.TypeAuthPurgeExpired, tasks.AuthPurgePayload{}, time.Hour)
	require.NoError(t, err)

	err = client.EnqueueTaskAt(ctx, tasks.TypeAuthPurgeExpired, tasks.AuthPurgePayload{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	client, err := jobsasynq.NewClient(jobsasynq.ClientConfig{
		RedisAddr: testBrokerAddr(t),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	// asynq reports an error on double close
	require.Error(t, client.Close())
}
