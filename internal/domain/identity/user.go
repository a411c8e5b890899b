package identity

import "time"

// User is the aggregate root for the Identity bounded context. The surrogate
// ID is assigned by the database on insert (zero until persisted).
type User struct {
	id             int64
	email          Email
	hashedPassword HashedPassword
	fullName       *string
	isActive       bool
	isSuperuser    bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewUser creates a new User with the given email and password verifier.
// Accounts start inactive; registration activates them explicitly.
func NewUser(email Email, hashedPassword HashedPassword, fullName *string, now time.Time) (*User, error) {
	if email.IsEmpty() {
		return nil, ErrEmailEmpty
	}
	if hashedPassword.IsEmpty() {
		return nil, ErrPasswordEmpty
	}

	return &User{
		email:          email,
		hashedPassword: hashedPassword,
		fullName:       fullName,
		isActive:       false,
		isSuperuser:    false,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructUser reconstitutes a User from persistence without validation.
// Only the repository layer should call this.
func ReconstructUser(
	id int64,
	email Email,
	hashedPassword HashedPassword,
	fullName *string,
	isActive, isSuperuser bool,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:             id,
		email:          email,
		hashedPassword: hashedPassword,
		fullName:       fullName,
		isActive:       isActive,
		isSuperuser:    isSuperuser,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the user's surrogate identifier.
func (u *User) ID() int64 {
	return u.id
}

// Email returns the user's email address.
func (u *User) Email() Email {
	return u.email
}

// HashedPassword returns the stored password verifier.
// For persistence and verification only.
func (u *User) HashedPassword() HashedPassword {
	return u.hashedPassword
}

// FullName returns the optional display name.
func (u *User) FullName() *string {
	return u.fullName
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.isActive
}

// IsSuperuser reports whether the account has the superuser flag.
func (u *User) IsSuperuser() bool {
	return u.isSuperuser
}

// CreatedAt returns when the user was created.
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated.
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// Activate enables the account.
func (u *User) Activate(now time.Time) {
	if u.isActive {
		return
	}
	u.isActive = true
	u.updatedAt = now
}

// Deactivate disables the account. Outstanding sessions are revoked by the
// caller; this only flips the flag.
func (u *User) Deactivate(now time.Time) {
	if !u.isActive {
		return
	}
	u.isActive = false
	u.updatedAt = now
}

// VerifyPassword verifies a plaintext password against the stored verifier.
func (u *User) VerifyPassword(plaintext string) error {
	return u.hashedPassword.Verify(plaintext)
}

// ChangePassword replaces the stored verifier.
func (u *User) ChangePassword(newHash HashedPassword, now time.Time) error {
	if newHash.IsEmpty() {
		return ErrPasswordEmpty
	}
	u.hashedPassword = newHash
	u.updatedAt = now
	return nil
}
