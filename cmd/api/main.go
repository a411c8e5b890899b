// Package main is the auth API server binary. It wires configuration,
// PostgreSQL, Redis, the token codec and the HTTP router, then serves with
// graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	appauth "github.com/yegamble/goauth-datalayer/internal/application/auth"
	appidentity "github.com/yegamble/goauth-datalayer/internal/application/identity"
	"github.com/yegamble/goauth-datalayer/internal/config"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/postgres"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/redis"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/secrets"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
	"github.com/yegamble/goauth-datalayer/internal/interfaces/http/handlers"
	"github.com/yegamble/goauth-datalayer/internal/interfaces/http/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "goauth-api").Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
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
	logger.Info().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("connected to postgres")

	// Redis backs the jobs broker and the readiness probe; auth state lives
	// in Postgres. A missing Redis degrades readiness, it does not stop the API.
	checks := map[string]handlers.DependencyCheck{
		"database": func(ctx context.Context) error { return postgres.HealthCheck(ctx, db) },
	}
	if redisClient, err := redis.NewClient(cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, readiness will report it")
		checks["redis"] = func(context.Context) error { return err }
	} else {
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = redisClient.Ping
	}

	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		return err
	}

	uow := postgres.NewUnitOfWork(db)
	usersService := appidentity.NewService(uow, logger)
	authService := appauth.NewService(uow, codec, logger)

	collector := middleware.NewMetricsCollector()

	router := handlers.NewRouter(handlers.RouterConfig{
		AuthHandler:      handlers.NewAuthHandler(authService, usersService, logger),
		UserHandler:      handlers.NewUserHandler(usersService, logger),
		HealthHandler:    handlers.NewHealthHandler(checks, logger),
		Extractor:        token.NewExtractor(codec),
		Codec:            codec,
		MetricsCollector: collector,
		Logger:           logger,
		IsProd:           !cfg.Service.Reload,
	})

	server := &http.Server{
		Addr:              cfg.Service.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// publish pool gauges on a slow tick
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := db.Stats()
			collector.SetDBPoolStats(stats.InUse, stats.Idle, stats.MaxOpenConnections)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
