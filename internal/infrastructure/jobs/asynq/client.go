// Package asynq wraps the asynq client and server for the auth maintenance
// queue. The queue carries exactly one kind of work — the periodic purge of
// expired sessions and refresh credentials — so both wrappers stay thin.
package asynq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// ClientConfig holds configuration for the enqueuing side.
type ClientConfig struct {
	// RedisAddr is the broker address (host:port).
	RedisAddr string

	// RedisPassword is the broker password (optional).
	RedisPassword string

	// RedisDB is the broker database number.
	RedisDB int

	// Logger is the structured logger for client operations.
	Logger zerolog.Logger
}

// Client enqueues maintenance tasks. Payloads are marshaled to JSON before
// they reach the broker.
type Client struct {
	client *asynq.Client
	logger zerolog.Logger
}

// NewClient creates an enqueuing client over the given broker.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		logger: cfg.Logger,
	}, nil
}

// EnqueueTask enqueues a task of the given type with a JSON payload.
// Prefer the typed constructors in the tasks package over raw payloads.
func (c *Client) EnqueueTask(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, payloadBytes, opts...))
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("task_type", taskType).
			Msg("failed to enqueue task")
		return fmt.Errorf("enqueue task %s: %w", taskType, err)
	}

	c.logger.Info().
		Str("task_id", info.ID).
		Str("task_type", taskType).
		Str("queue", info.Queue).
		Time("scheduled_at", info.NextProcessAt).
		Msg("task enqueued")

	return nil
}

// EnqueueTaskWithDelay enqueues a task to be processed after the delay.
func (c *Client) EnqueueTaskWithDelay(ctx context.Context, taskType string, payload interface{}, delay time.Duration, opts ...asynq.Option) error {
	return c.EnqueueTask(ctx, taskType, payload, append(opts, asynq.ProcessIn(delay))...)
}

// EnqueueTaskAt enqueues a task to be processed at the given time.
func (c *Client) EnqueueTaskAt(ctx context.Context, taskType string, payload interface{}, processAt time.Time, opts ...asynq.Option) error {
	return c.EnqueueTask(ctx, taskType, payload, append(opts, asynq.ProcessAt(processAt))...)
}

// Close closes the broker connection. Call during graceful shutdown.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close asynq client: %w", err)
	}
	return nil
}
