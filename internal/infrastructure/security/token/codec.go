// Package token implements the RS256 bearer-credential codec and the
// Authorization-header extractor. The codec is process-wide and stateless
// after construction: key material is read once from PEM files.
package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

// Token configuration defaults.
const (
	DefaultAlgorithm   = "RS256"
	DefaultTypeField   = "type"
	DefaultAccessType  = "access"
	DefaultRefreshType = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
)

// Config holds codec configuration.
type Config struct {
	PrivateKeyPath string        // Path to RSA private key file (PEM format)
	PublicKeyPath  string        // Path to RSA public key file (PEM format)
	Algorithm      string        // Signing algorithm (only RS256 is supported)
	TypeField      string        // Claim name carrying the token type
	AccessType     string        // Type value for access tokens
	RefreshType    string        // Type value for refresh tokens
	AccessTTL      time.Duration // Access token time-to-live
	RefreshTTL     time.Duration // Refresh token time-to-live
}

// DefaultConfig returns a Config with the service defaults
// (access 15 minutes, refresh 14 days).
func DefaultConfig() Config {
	return Config{
		Algorithm:   DefaultAlgorithm,
		TypeField:   DefaultTypeField,
		AccessType:  DefaultAccessType,
		RefreshType: DefaultRefreshType,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
	}
}

// Claims is the decoded JWT payload.
type Claims map[string]any

// UserID extracts the numeric user_id claim.
func (c Claims) UserID() (int64, error) {
	raw, ok := c["user_id"]
	if !ok {
		return 0, fmt.Errorf("%w: missing user_id claim", auth.ErrTokenInvalid)
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: user_id claim is not an integer", auth.ErrTokenInvalid)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: user_id claim is not a number", auth.ErrTokenInvalid)
	}
}

// StringClaim extracts a string claim by name. The second return value is
// false when the claim is absent or not a string.
func (c Claims) StringClaim(name string) (string, bool) {
	raw, ok := c[name]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}

// IssuedToken is a freshly encoded credential with its timestamps.
type IssuedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec produces and verifies RS256-signed bearer credentials.
type Codec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	config     Config
}

// NewCodec creates a codec with the given configuration, loading and
// validating the RSA key pair from the configured paths.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.Algorithm != DefaultAlgorithm {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", cfg.Algorithm)
	}
	if cfg.TypeField == "" {
		cfg.TypeField = DefaultTypeField
	}
	if cfg.AccessType == "" {
		cfg.AccessType = DefaultAccessType
	}
	if cfg.RefreshType == "" {
		cfg.RefreshType = DefaultRefreshType
	}
	if cfg.AccessTTL <= 0 {
		return nil, fmt.Errorf("access TTL must be positive")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("refresh TTL must be positive")
	}
	if cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("private key path cannot be empty")
	}
	if cfg.PublicKeyPath == "" {
		return nil, fmt.Errorf("public key path cannot be empty")
	}

	privateKey, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	publicKey, err := loadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	return &Codec{
		privateKey: privateKey,
		publicKey:  publicKey,
		config:     cfg,
	}, nil
}

// AccessType returns the configured access token type value.
func (c *Codec) AccessType() string { return c.config.AccessType }

// RefreshType returns the configured refresh token type value.
func (c *Codec) RefreshType() string { return c.config.RefreshType }

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.config.AccessTTL }

// Encode produces a signed credential for the user. The payload carries
// user_id, the type field, iat and exp, merged with the extra claims
// (sid/fam/jti or nothing). TTL is selected by token type.
func (c *Codec) Encode(userID int64, tokenType string, extra map[string]any) (IssuedToken, error) {
	if tokenType != c.config.AccessType && tokenType != c.config.RefreshType {
		return IssuedToken{}, fmt.Errorf("unknown token type: %q", tokenType)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(c.ttlForType(tokenType))

	claims := jwt.MapClaims{
		"user_id":          userID,
		c.config.TypeField: tokenType,
		"iat":              jwt.NewNumericDate(now),
		"exp":              jwt.NewNumericDate(expiresAt),
	}
	for name, value := range extra {
		claims[name] = value
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return IssuedToken{
		Token:     signed,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Decode parses and verifies a credential. iat and exp are required;
// audience is not verified. Returns auth.ErrTokenExpired when the signature
// is valid but exp has passed, auth.ErrTokenInvalid for everything else.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrTokenInvalid)
	}

	parsed, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.publicKey, nil
		},
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrTokenInvalid, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, auth.ErrTokenInvalid
	}

	if _, present := mapClaims["iat"]; !present {
		return nil, fmt.Errorf("%w: missing iat claim", auth.ErrTokenInvalid)
	}

	return Claims(mapClaims), nil
}

// TypeOf returns the token type claim, or the empty string when absent.
func (c *Codec) TypeOf(claims Claims) string {
	value, _ := claims.StringClaim(c.config.TypeField)
	return value
}

func (c *Codec) ttlForType(tokenType string) time.Duration {
	if tokenType == c.config.RefreshType {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

// loadPrivateKey loads an RSA private key from a PEM file.
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	//nolint:gosec // G304: File path comes from trusted configuration, not user input
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	// Try parsing as PKCS#1 first
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return privateKey, nil
	}

	// Try parsing as PKCS#8
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not an RSA private key")
	}

	return rsaKey, nil
}

// loadPublicKey loads an RSA public key from a PEM file.
func loadPublicKey(path string) (*rsa.PublicKey, error) {
	//nolint:gosec // G304: File path comes from trusted configuration, not user input
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	// Try parsing as PKIX first
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA public key")
		}
		return rsaKey, nil
	}

	// Try parsing as PKCS#1
	publicKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return publicKey, nil
}
