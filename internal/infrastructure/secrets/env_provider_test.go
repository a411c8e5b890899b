package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv(SecretDBPassword, "pg-secret")

	provider := NewEnvProvider()
	ctx := context.Background()

	value, err := provider.GetSecret(ctx, SecretDBPassword)
	require.NoError(t, err)
	assert.Equal(t, "pg-secret", value)

	// unset optional secret is an error on the strict path
	t.Setenv(SecretRedisPassword, "")
	_, err = provider.GetSecret(ctx, SecretRedisPassword)
	require.Error(t, err)
}

func TestEnvProvider_GetSecretWithDefault(t *testing.T) {
	t.Setenv(SecretRedisPassword, "")

	provider := NewEnvProvider()
	ctx := context.Background()

	// redis auth is optional in development: empty env falls back
	assert.Equal(t, "", provider.GetSecretWithDefault(ctx, SecretRedisPassword, ""))
	assert.Equal(t, "fallback", provider.GetSecretWithDefault(ctx, SecretRedisPassword, "fallback"))

	t.Setenv(SecretRedisPassword, "redis-secret")
	assert.Equal(t, "redis-secret", provider.GetSecretWithDefault(ctx, SecretRedisPassword, "fallback"))
}

func TestEnvProvider_MustGetSecret(t *testing.T) {
	t.Setenv(SecretDBPassword, "pg-secret")

	provider := NewEnvProvider()
	ctx := context.Background()

	assert.Equal(t, "pg-secret", provider.MustGetSecret(ctx, SecretDBPassword))

	t.Setenv(SecretDBPassword, "")
	assert.Panics(t, func() {
		provider.MustGetSecret(ctx, SecretDBPassword)
	})
}

func TestEnvProvider_ValidateRequiredSecrets(t *testing.T) {
	provider := NewEnvProvider()
	ctx := context.Background()

	// the database password is the only hard requirement
	t.Setenv(SecretDBPassword, "pg-secret")
	require.NoError(t, provider.ValidateRequiredSecrets(ctx))

	t.Setenv(SecretDBPassword, "")
	err := provider.ValidateRequiredSecrets(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), SecretDBPassword)
}

func TestEnvProvider_ListAvailableSecrets(t *testing.T) {
	t.Setenv(SecretDBPassword, "pg-secret")
	t.Setenv(SecretRedisPassword, "")

	provider := NewEnvProvider()

	available := provider.ListAvailableSecrets(context.Background())
	assert.True(t, available[SecretDBPassword])
	assert.False(t, available[SecretRedisPassword])
}

func TestEnvProvider_ProviderName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "env", NewEnvProvider().ProviderName())
}
