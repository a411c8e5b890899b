// Package config assembles the typed service configuration from the
// environment through the secrets provider abstraction.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/postgres"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/persistence/redis"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/secrets"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig
	Postgres postgres.Config
	Redis    redis.Config
	Token    token.Config
	Echo     bool // log SQL statements
}

// ServiceConfig holds the HTTP listener settings.
type ServiceConfig struct {
	Host   string
	Port   int
	Reload bool // dev-mode flag carried for parity with deployment manifests
}

// Addr renders the listen address.
func (s ServiceConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads the configuration from the environment. The database and Redis
// passwords go through the secrets provider; everything else is plain env.
func Load(ctx context.Context, provider secrets.SecretProvider) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Host:   envOr("SERVICE_HOST", "0.0.0.0"),
			Port:   envIntOr("SERVICE_PORT", 8000),
			Reload: envBoolOr("SERVICE_RELOAD", false),
		},
		Postgres: postgres.DefaultConfig(),
		Redis:    redis.DefaultConfig(),
		Token:    token.DefaultConfig(),
		Echo:     envBoolOr("ECHO", false),
	}

	cfg.Postgres.Host = envOr("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envIntOr("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envOr("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Database = envOr("POSTGRES_DB", cfg.Postgres.Database)
	cfg.Postgres.Password = provider.GetSecretWithDefault(ctx, secrets.SecretDBPassword, cfg.Postgres.Password)

	cfg.Redis.Host = envOr("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = envIntOr("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.DB = envIntOr("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Password = provider.GetSecretWithDefault(ctx, secrets.SecretRedisPassword, "")

	cfg.Token.Algorithm = envOr("JWT_ALG", cfg.Token.Algorithm)
	cfg.Token.TypeField = envOr("JWT_TYPE_FIELD", cfg.Token.TypeField)
	cfg.Token.AccessType = envOr("JWT_ACCESS_TYPE", cfg.Token.AccessType)
	cfg.Token.RefreshType = envOr("JWT_REFRESH_TYPE", cfg.Token.RefreshType)
	cfg.Token.AccessTTL = time.Duration(envIntOr("JWT_ACCESS_TTL_MIN", 15)) * time.Minute
	cfg.Token.RefreshTTL = time.Duration(envIntOr("JWT_REFRESH_TTL_MIN", 20160)) * time.Minute
	cfg.Token.PrivateKeyPath = os.Getenv("JWT_PRIVATE_KEY_PATH")
	cfg.Token.PublicKeyPath = os.Getenv("JWT_PUBLIC_KEY_PATH")

	if cfg.Token.PrivateKeyPath == "" || cfg.Token.PublicKeyPath == "" {
		return nil, fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required")
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envIntOr(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBoolOr(name string, fallback bool) bool {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		// settings like ECHO=1/0 arrive as ints too
		if n, nerr := strconv.Atoi(value); nerr == nil {
			return n != 0
		}
		return fallback
	}
	return parsed
}
