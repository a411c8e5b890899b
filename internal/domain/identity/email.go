package identity

import (
	"regexp"
	"strings"
)

// Email is a value object representing a validated email address.
// Stored lowercased; unique per user.
type Email struct {
	value string
}

// emailRegex validates basic email format following a simplified RFC 5322 pattern.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NewEmail creates a new Email value object after validating the input.
// The email is normalized: trimmed and lowercased.
func NewEmail(value string) (Email, error) {
	value = strings.TrimSpace(strings.ToLower(value))

	if value == "" {
		return Email{}, ErrEmailEmpty
	}

	if len(value) > 255 {
		return Email{}, ErrEmailTooLong
	}

	if !emailRegex.MatchString(value) {
		return Email{}, ErrEmailInvalid
	}

	return Email{value: value}, nil
}

// String returns the string representation of the email address.
func (e Email) String() string {
	return e.value
}

// IsEmpty returns true if the email is the zero value.
func (e Email) IsEmpty() bool {
	return e.value == ""
}

// Equals returns true if this Email equals the other Email.
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}
