package testhelpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
	"github.com/yegamble/goauth-datalayer/internal/infrastructure/security/token"
)

// Test constants for consistent fixture data.
const (
	ValidEmail     = "test@example.com"
	ValidPassword  = "SecureP@ssw0rd"
	ValidIPAddress = "192.168.1.1"
	ValidUserAgent = "Mozilla/5.0 (Test Browser)"
)

// NewTestCodec builds a codec over a freshly generated RSA key pair written
// to a temp dir. TTLs use the service defaults.
func NewTestCodec(t *testing.T) *token.Codec {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privatePath, privatePEM, 0o600))

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})
	require.NoError(t, os.WriteFile(publicPath, publicPEM, 0o600))

	cfg := token.DefaultConfig()
	cfg.PrivateKeyPath = privatePath
	cfg.PublicKeyPath = publicPath

	codec, err := token.NewCodec(cfg)
	require.NoError(t, err)
	return codec
}

// SeedUser inserts an active user into the store and returns it with its
// assigned ID.
func SeedUser(t *testing.T, store *MemoryStore, email, password string) *identity.User {
	t.Helper()

	emailVO, err := identity.NewEmail(email)
	require.NoError(t, err)
	hash, err := identity.NewHashedPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	user, err := identity.NewUser(emailVO, hash, nil, now)
	require.NoError(t, err)
	user.Activate(now)

	var created *identity.User
	err = store.UnitOfWork().WithinTx(context.Background(), func(tx auth.RepoSet) error {
		var err error
		created, err = tx.Users().Create(context.Background(), user)
		return err
	})
	require.NoError(t, err)
	return created
}

// CredentialByJTI reads a refresh credential straight from the store.
func CredentialByJTI(t *testing.T, store *MemoryStore, jti uuid.UUID) *auth.RefreshCredential {
	t.Helper()

	var credential *auth.RefreshCredential
	err := store.UnitOfWork().WithinTx(context.Background(), func(tx auth.RepoSet) error {
		var err error
		credential, err = tx.Refresh().GetByJTI(context.Background(), jti)
		return err
	})
	require.NoError(t, err)
	return credential
}
