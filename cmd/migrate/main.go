// Package main provides the database migration CLI tool.
// It manages the schema with goose over the embedded migration files.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate status
//	migrate version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/config"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/postgres"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/secrets"
	"github.com/yegamble/goauth-datalayer/migrations"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(command, logger); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
}

func run(command string, logger zerolog.Logger) error {
	ctx := context.Background()

	provider, err := secrets.NewProvider(secrets.SecretConfig{Provider: os.Getenv("SECRETS_PROVIDER")})
	if err != nil {
		return fmt.Errorf("init secrets provider: %w", err)
	}

	// the migrate CLI only needs the database section; key paths may be absent
	pgCfg := postgres.DefaultConfig()
	if cfg, err := config.Load(ctx, provider); err == nil {
		pgCfg = cfg.Postgres
	} else {
		pgCfg.Host = envOr("POSTGRES_HOST", pgCfg.Host)
		if port, perr := strconv.Atoi(os.Getenv("POSTGRES_PORT")); perr == nil {
			pgCfg.Port = port
		}
		pgCfg.User = envOr("POSTGRES_USER", pgCfg.User)
		pgCfg.Database = envOr("POSTGRES_DB", pgCfg.Database)
		pgCfg.Password = provider.GetSecretWithDefault(ctx, secrets.SecretDBPassword, pgCfg.Password)
	}

	db, err := postgres.NewDB(pgCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = postgres.Close(db) }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	switch command {
	case "up":
		err = goose.Up(db.DB, ".")
	case "down":
		err = goose.Down(db.DB, ".")
	case "status":
		err = goose.Status(db.DB, ".")
	case "version":
		err = goose.Version(db.DB, ".")
	default:
		return fmt.Errorf("unknown command %q (supported: up, down, status, version)", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	logger.Info().Str("command", command).Msg("migration complete")
	return nil
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
