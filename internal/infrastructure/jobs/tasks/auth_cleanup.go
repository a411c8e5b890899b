// Package tasks defines the background job types and their handlers.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

// TypeAuthPurgeExpired is the task type for the periodic purge of expired
// sessions and refresh credentials.
const TypeAuthPurgeExpired = "auth:purge_expired"

// DefaultRetention is how long expired or revoked rows are kept before the
// purge removes them. Revocation stays queryable for this window.
const DefaultRetention = 30 * 24 * time.Hour

// AuthPurgePayload parameterizes one purge run.
type AuthPurgePayload struct {
	// RetentionHours overrides the default retention when positive.
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewAuthPurgeTask builds the asynq task for a purge run.
func NewAuthPurgeTask(payload AuthPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal purge payload: %w", err)
	}
	return asynq.NewTask(TypeAuthPurgeExpired, data), nil
}

// AuthPurgeHandler deletes sessions and refresh credentials whose expiry or
// revocation passed the retention window. Correctness never depends on it:
// revocation state is authoritative in PostgreSQL; the purge only keeps the
// tables bounded.
type AuthPurgeHandler struct {
	uow    auth.UnitOfWork
	logger zerolog.Logger
}

// NewAuthPurgeHandler creates the handler over the unit of work.
func NewAuthPurgeHandler(uow auth.UnitOfWork, logger zerolog.Logger) *AuthPurgeHandler {
	return &AuthPurgeHandler{
		uow:    uow,
		logger: logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *AuthPurgeHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload AuthPurgePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal purge payload: %w", err)
		}
	}

	retention := DefaultRetention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}

	now := time.Now().UTC()
	var tokens, sessions int64

	err := h.uow.WithinTx(ctx, func(tx auth.RepoSet) error {
		var err error
		if tokens, err = tx.Refresh().DeleteExpired(ctx, now, retention); err != nil {
			return fmt.Errorf("purge refresh credentials: %w", err)
		}
		if sessions, err = tx.Sessions().DeleteExpired(ctx, now, retention); err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("auth purge failed")
		return err
	}

	h.logger.Info().
		Int64("tokens_deleted", tokens).
		Int64("sessions_deleted", sessions).
		Dur("retention", retention).
		Msg("auth purge completed")

	return nil
}
