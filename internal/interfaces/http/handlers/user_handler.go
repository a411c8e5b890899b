package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	appidentity "github.com/yegamble/goauth-datalayer/internal/application/identity"
	"github.com/yegamble/goauth-datalayer/internal/interfaces/http/middleware"
)

// UserHandler handles the user-account endpoints.
type UserHandler struct {
	users  *appidentity.Service
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(users *appidentity.Service, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// Register handles POST /auth_api/v1/users/register.
//
// Response: 201 UserRead
// Errors: 409 email_taken, 422 validation
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid register request")
		middleware.WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Invalid registration data")
		return
	}

	user, err := h.users.Register(ctx, appidentity.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if err := EncodeJSON(w, http.StatusCreated, user); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode register response")
	}
}

// Me handles GET /auth_api/v1/users/me.
//
// Response: 200 UserRead
// Errors: 401, 403 user_inactive, 404 user_not_found
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if !user.IsActive {
		middleware.WriteError(w, http.StatusForbidden, "user_inactive", "User is inactive")
		return
	}

	if err := EncodeJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode profile response")
	}
}
