//nolint:testpackage // White-box testing required for internal implementation
package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSecretFiles mounts this service's secrets the way Swarm/Kubernetes
// would: one file per secret, trailing newline included.
func writeSecretFiles(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretDBPassword), []byte("pg-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretRedisPassword), []byte("redis-secret\n"), 0o600))
	return dir
}

func TestDockerSecretsProvider_GetSecret(t *testing.T) {
	t.Parallel()

	provider := NewDockerSecretsProvider(writeSecretFiles(t))
	ctx := context.Background()

	// trailing newline from the mounted file is trimmed
	value, err := provider.GetSecret(ctx, SecretDBPassword)
	require.NoError(t, err)
	assert.Equal(t, "pg-secret", value)

	_, err = provider.GetSecret(ctx, "NO_SUCH_SECRET")
	require.Error(t, err)
}

func TestDockerSecretsProvider_CacheAndRefresh(t *testing.T) {
	t.Parallel()

	dir := writeSecretFiles(t)
	provider := NewDockerSecretsProvider(dir)
	ctx := context.Background()

	value, err := provider.GetSecret(ctx, SecretRedisPassword)
	require.NoError(t, err)
	assert.Equal(t, "redis-secret", value)

	// a rotated file is not seen until the cache entry is refreshed
	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretRedisPassword), []byte("rotated\n"), 0o600))

	value, err = provider.GetSecret(ctx, SecretRedisPassword)
	require.NoError(t, err)
	assert.Equal(t, "redis-secret", value)

	provider.RefreshSecret(SecretRedisPassword)
	value, err = provider.GetSecret(ctx, SecretRedisPassword)
	require.NoError(t, err)
	assert.Equal(t, "rotated", value)

	// ClearCache drops everything
	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretRedisPassword), []byte("rotated-again\n"), 0o600))
	provider.ClearCache()
	value, err = provider.GetSecret(ctx, SecretRedisPassword)
	require.NoError(t, err)
	assert.Equal(t, "rotated-again", value)
}

func TestDockerSecretsProvider_GetSecretWithDefault(t *testing.T) {
	t.Parallel()

	provider := NewDockerSecretsProvider(writeSecretFiles(t))
	ctx := context.Background()

	assert.Equal(t, "pg-secret", provider.GetSecretWithDefault(ctx, SecretDBPassword, "fallback"))
	assert.Equal(t, "fallback", provider.GetSecretWithDefault(ctx, "NO_SUCH_SECRET", "fallback"))
}

func TestDockerSecretsProvider_MustGetSecret(t *testing.T) {
	t.Parallel()

	provider := NewDockerSecretsProvider(writeSecretFiles(t))
	ctx := context.Background()

	assert.Equal(t, "pg-secret", provider.MustGetSecret(ctx, SecretDBPassword))
	assert.Panics(t, func() {
		provider.MustGetSecret(ctx, "NO_SUCH_SECRET")
	})
}

func TestDockerSecretsProvider_ValidateRequiredSecrets(t *testing.T) {
	t.Parallel()

	provider := NewDockerSecretsProvider(writeSecretFiles(t))
	require.NoError(t, provider.ValidateRequiredSecrets(context.Background()))

	// an empty mount is missing the database password
	empty := NewDockerSecretsProvider(t.TempDir())
	err := empty.ValidateRequiredSecrets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), SecretDBPassword)
}

func TestDockerSecretsProvider_ProviderName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "docker-secrets", NewDockerSecretsProvider("/run/secrets").ProviderName())
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	provider, err := NewProvider(SecretConfig{Provider: "env"})
	require.NoError(t, err)
	assert.Equal(t, "env", provider.ProviderName())

	// empty selection defaults to the env provider
	provider, err = NewProvider(SecretConfig{})
	require.NoError(t, err)
	assert.Equal(t, "env", provider.ProviderName())

	provider, err = NewProvider(SecretConfig{Provider: "docker"})
	require.NoError(t, err)
	assert.Equal(t, "docker-secrets", provider.ProviderName())

	_, err = NewProvider(SecretConfig{Provider: "vault"})
	require.Error(t, err)
}
