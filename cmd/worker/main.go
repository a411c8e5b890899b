// Package main is the background worker binary. It processes the periodic
// purge of expired sessions and refresh credentials over the asynq queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/config"
	jobsasynq "github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/asynq"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/jobs/tasks"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/postgres"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/secrets"
)

// purgeInterval is how often the purge task is enqueued.
const purgeInterval = time.Hour

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "goauth-worker").Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("worker exited with error")
	}
}

func run(logger zerolog.Logger) error {
	ctx := context.Background()

	provider, err := secrets.NewProvider(secrets.SecretConfig{Provider: os.Getenv("SECRETS_PROVIDER")})
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, provider)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	uow := postgres.NewUnitOfWork(db)

	serverCfg := jobsasynq.DefaultServerConfig(cfg.Redis.Addr(), logger)
	serverCfg.RedisPassword = cfg.Redis.Password
	serverCfg.RedisDB = cfg.Redis.DB

	server, err := jobsasynq.NewServer(serverCfg)
	if err != nil {
		return err
	}
	server.Handle(tasks.TypeAuthPurgeExpired, tasks.NewAuthPurgeHandler(uow, logger))

	client, err := jobsasynq.NewClient(jobsasynq.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	// enqueue one purge immediately, then on the interval
	enqueue := func() {
		payload := tasks.AuthPurgePayload{}
		if err := client.EnqueueTask(ctx, tasks.TypeAuthPurgeExpired, payload); err != nil {
			logger.Error().Err(err).Msg("failed to enqueue purge task")
		}
	}
	enqueue()

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			enqueue()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	server.Shutdown()
	return nil
}
