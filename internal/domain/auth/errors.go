package auth

import "errors"

// Domain-specific errors for the auth bounded context. The HTTP error mapper
// is the single place where these are translated to transport responses.
var (
	// ErrAuthHeaderMissing indicates the Authorization header is absent or empty.
	ErrAuthHeaderMissing = errors.New("authorization header missing")
	// ErrAuthSchemeInvalid indicates the Authorization scheme is not Bearer.
	ErrAuthSchemeInvalid = errors.New("invalid authentication scheme")
	// ErrTokenExpired indicates a token with a valid signature whose exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a token that failed signature or structural checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenWrongType indicates a valid token presented where the other type was expected.
	ErrTokenWrongType = errors.New("invalid token type")
	// ErrMalformedRefreshToken indicates a refresh token with absent or unparseable sid/fam/jti claims.
	ErrMalformedRefreshToken = errors.New("malformed refresh token")

	// ErrRefreshNotActive indicates the presented refresh credential is not active:
	// unknown hash, already used, revoked, or expired.
	ErrRefreshNotActive = errors.New("refresh token not active")
	// ErrRefreshReuseDetected indicates a second redemption of a refresh credential.
	// It is always accompanied by revocation of the credential's family and session.
	ErrRefreshReuseDetected = errors.New("refresh token reuse detected")
	// ErrRefreshRotate indicates the rotation procedure failed mid-flight for an
	// infrastructure reason (not a reuse).
	ErrRefreshRotate = errors.New("refresh token rotation failed")

	// ErrSessionNotFound indicates a session lookup by id matched no row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked indicates a state transition attempted on a revoked session.
	ErrSessionRevoked = errors.New("session already revoked")
)
