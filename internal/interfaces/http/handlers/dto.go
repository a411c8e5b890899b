package handlers

// HTTP-specific request DTOs for the handlers layer. They carry the JSON
// contract and validation rules using go-playground/validator.

// RegisterRequest is the body of POST /auth_api/v1/users/register.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
}

// LoginRequest is the body of POST /auth_api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
