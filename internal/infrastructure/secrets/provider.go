// Package secrets abstracts where sensitive configuration values come from.
// The env provider serves local development; the Docker-secrets provider
// serves container orchestration where secrets are mounted as files.
package secrets

import (
	"context"
	"fmt"
)

// SecretProvider defines the interface for retrieving secrets from various
// sources (environment variables, Docker Secrets, a vault, ...).
type SecretProvider interface {
	// GetSecret retrieves a secret by name.
	// Returns the secret value or an error if not found or inaccessible.
	GetSecret(ctx context.Context, name string) (string, error)

	// GetSecretWithDefault retrieves a secret by name, returning a default
	// value if not found. Useful for optional secrets like REDIS_PASSWORD.
	GetSecretWithDefault(ctx context.Context, name, defaultValue string) string

	// MustGetSecret retrieves a secret by name and panics if not found.
	// Use for required secrets during application initialization.
	MustGetSecret(ctx context.Context, name string) string

	// ProviderName returns the name of the provider for logging/debugging.
	ProviderName() string
}

// SecretConfig holds configuration for the secret provider.
type SecretConfig struct {
	// Provider selects the implementation: "env" or "docker".
	Provider string

	// DockerSecretsPath is where Docker Secrets are mounted.
	// Default: /run/secrets
	DockerSecretsPath string
}

// NewProvider creates a SecretProvider based on the configuration.
func NewProvider(config SecretConfig) (SecretProvider, error) {
	switch config.Provider {
	case "", "env", "environment":
		return NewEnvProvider(), nil
	case "docker", "docker-secrets":
		path := config.DockerSecretsPath
		if path == "" {
			path = "/run/secrets"
		}
		return NewDockerSecretsProvider(path), nil
	default:
		return nil, fmt.Errorf("unknown secret provider: %s (supported: env, docker)", config.Provider)
	}
}

// Secret name constants for the values this service treats as sensitive.
const (
	// Database.
	SecretDBPassword = "POSTGRES_PASSWORD"

	// Redis (jobs broker). Optional in development.
	SecretRedisPassword = "REDIS_PASSWORD"
)

// RequiredSecrets returns the secrets that MUST be present for the service
// to start. Missing required secrets fail fast during initialization.
func RequiredSecrets() []string {
	return []string{
		SecretDBPassword,
	}
}
