package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	appauth "github.com/yegamble/goauth-datalayer/internal/application/auth"
	appidentity "github.com/yegamble/goauth-datalayer/internal/application/identity"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
	"github.com/yegamble/goauth-datalayer/internal/interfaces/http/middleware"
)

// AuthHandler handles the authentication endpoints. It delegates to the
// application services; error translation happens in the single error mapper.
type AuthHandler struct {
	auth   *appauth.Service
	users  *appidentity.Service
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(auth *appauth.Service, users *appidentity.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

// Login handles POST /auth_api/v1/auth/login.
// Authenticates the credentials and opens a new device session.
//
// Response: 200 TokenPair
// Errors: 401 invalid_credentials, 403 user_inactive, 422 validation
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid login request")
		middleware.WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Invalid login data")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if !user.IsActive() {
		middleware.WriteDomainError(w, r, h.logger, identity.ErrUserInactive)
		return
	}

	pair, err := h.auth.Login(ctx, appauth.LoginInput{
		UserID:    user.ID(),
		UserAgent: UserAgent(r),
		IPAddress: ClientIP(r),
	})
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if err := EncodeJSON(w, http.StatusOK, pair); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode login response")
	}
}

// Refresh handles POST /auth_api/v1/auth/refresh.
// The refresh token arrives as the Bearer credential; rotation consumes it
// and returns a fresh pair.
//
// Response: 200 TokenPair
// Errors: 400 invalid_token_type/malformed_refresh_token, 401 reuse/expired/invalid
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	verified, ok := middleware.GetVerifiedToken(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	pair, err := h.auth.Rotate(ctx, verified.Raw)
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if err := EncodeJSON(w, http.StatusOK, pair); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode refresh response")
	}
}

// Logout handles POST /auth_api/v1/auth/logout.
// Revokes the presented refresh credential and its session. Idempotent.
//
// Response: 204 No Content
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	verified, ok := middleware.GetVerifiedToken(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	if err := h.auth.LogoutByRefresh(ctx, verified.Raw); err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles POST /auth_api/v1/auth/logout-all.
// Revokes every session and refresh credential of the authenticated user.
//
// Response: 204 No Content
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	if err := h.auth.LogoutAll(ctx, userID); err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Sessions handles GET /auth_api/v1/auth/sessions.
// Lists the authenticated user's active sessions, most recently seen first.
//
// Response: 200 [SessionRead]
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	sessions, err := h.auth.ListSessions(ctx, userID)
	if err != nil {
		middleware.WriteDomainError(w, r, h.logger, err)
		return
	}

	if err := EncodeJSON(w, http.StatusOK, sessions); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode sessions response")
	}
}
