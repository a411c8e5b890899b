package identity

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashedPassword is a value object holding a bcrypt password verifier.
// Plaintext passwords never leave this file.
type HashedPassword struct {
	hash string
}

// Password validation and hashing constants.
const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
	bcryptCost        = 12
)

// NewHashedPassword creates a new HashedPassword by hashing the plaintext
// password with bcrypt.
func NewHashedPassword(plaintext string) (HashedPassword, error) {
	if plaintext == "" {
		return HashedPassword{}, ErrPasswordEmpty
	}

	if len(plaintext) < minPasswordLength {
		return HashedPassword{}, ErrPasswordTooShort
	}

	if len(plaintext) > maxPasswordLength {
		return HashedPassword{}, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return HashedPassword{}, fmt.Errorf("hash password: %w", err)
	}

	return HashedPassword{hash: string(hash)}, nil
}

// ParseHashedPassword creates a HashedPassword from a stored verifier string.
// Only bcrypt verifiers ($2a$/$2b$/$2y$) are accepted: legacy plaintext rows
// are rejected rather than compared directly.
func ParseHashedPassword(stored string) (HashedPassword, error) {
	if stored == "" {
		return HashedPassword{}, ErrPasswordEmpty
	}

	if !strings.HasPrefix(stored, "$2") {
		return HashedPassword{}, fmt.Errorf("stored password is not a bcrypt verifier")
	}

	return HashedPassword{hash: stored}, nil
}

// String returns the encoded verifier for persistence. Never log it.
func (p HashedPassword) String() string {
	return p.hash
}

// IsEmpty returns true if the HashedPassword is the zero value.
func (p HashedPassword) IsEmpty() bool {
	return p.hash == ""
}

// Verify checks the plaintext against the stored verifier.
// Returns ErrWrongPassword on mismatch.
func (p HashedPassword) Verify(plaintext string) error {
	if p.IsEmpty() {
		return ErrPasswordEmpty
	}

	err := bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongPassword
		}
		return fmt.Errorf("verify password: %w", err)
	}

	return nil
}
