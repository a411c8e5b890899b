// Package identity implements application-layer use cases for user accounts:
// registration, credential authentication and profile reads. The auth use
// cases consume it only through Authenticate and Get.
package identity

import (
	"time"

	domain "github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// UserRead represents a user in API responses. It excludes the password
// verifier and is safe for external consumption.
type UserRead struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromDomain converts a domain User aggregate to a UserRead.
func FromDomain(user *domain.User) UserRead {
	return UserRead{
		ID:          user.ID(),
		Email:       user.Email().String(),
		FullName:    user.FullName(),
		IsActive:    user.IsActive(),
		IsSuperuser: user.IsSuperuser(),
		CreatedAt:   user.CreatedAt(),
		UpdatedAt:   user.UpdatedAt(),
	}
}

// RegisterInput carries the data needed to register a new user.
type RegisterInput struct {
	Email    string
	Password string
	FullName *string
}
