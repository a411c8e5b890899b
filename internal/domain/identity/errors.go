package identity

import "errors"

// Domain-specific errors for the Identity bounded context.
var (
	// ErrEmailEmpty indicates the email address is empty.
	ErrEmailEmpty = errors.New("email cannot be empty")
	// ErrEmailInvalid indicates the email format is invalid.
	ErrEmailInvalid = errors.New("email format is invalid")
	// ErrEmailTooLong indicates the email exceeds the maximum length.
	ErrEmailTooLong = errors.New("email exceeds 255 characters")

	// ErrPasswordEmpty indicates the password is empty.
	ErrPasswordEmpty = errors.New("password cannot be empty")
	// ErrPasswordTooShort indicates the password is too short.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong indicates the password exceeds the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password cannot exceed 72 characters")

	// ErrUserNotFound indicates a user lookup by email matched no row.
	// Deliberately indistinguishable from ErrWrongPassword at the transport.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword indicates the password did not match the stored verifier.
	ErrWrongPassword = errors.New("wrong password")
	// ErrCurrentUserNotFound indicates the authenticated user's row is gone.
	ErrCurrentUserNotFound = errors.New("current user not found")
	// ErrUserInactive indicates an operation on a deactivated account.
	ErrUserInactive = errors.New("user is inactive")
	// ErrEmailAlreadyUsed indicates a registration with a taken email.
	ErrEmailAlreadyUsed = errors.New("email already registered")
)
