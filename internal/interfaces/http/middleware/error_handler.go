package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
	"github.com/yegamble/goauth-datalayer/internal/domain/identity"
)

// ErrorBody is the wire envelope for every error response:
//
//	{"error":{"code":"<machine>","message":"<human>"}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorSpec describes how one domain error kind maps onto the transport.
type ErrorSpec struct {
	Status        int
	Code          string
	Message       string
	Bearer        bool // adds WWW-Authenticate: Bearer (all 401s carry it)
	UseErrMessage bool // substitute the concrete error's message
}

// errorSpecs is the single translation table for the domain taxonomy.
// Only declared domain errors are mapped; anything else is a 500.
var errorSpecs = []struct {
	match error
	spec  ErrorSpec
}{
	{identity.ErrEmailAlreadyUsed, ErrorSpec{Status: http.StatusConflict, Code: "email_taken", Message: "Email already registered"}},
	// user-not-found and wrong-password are deliberately indistinguishable
	{identity.ErrUserNotFound, ErrorSpec{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid credentials", Bearer: true}},
	{identity.ErrWrongPassword, ErrorSpec{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid credentials", Bearer: true}},
	{identity.ErrUserInactive, ErrorSpec{Status: http.StatusForbidden, Code: "user_inactive", Message: "User is inactive"}},
	{identity.ErrCurrentUserNotFound, ErrorSpec{Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"}},

	{auth.ErrAuthHeaderMissing, ErrorSpec{Status: http.StatusUnauthorized, Code: "not_authenticated", Message: "Not authenticated", Bearer: true}},
	{auth.ErrAuthSchemeInvalid, ErrorSpec{Status: http.StatusUnauthorized, Code: "invalid_auth_scheme", Message: "Invalid authentication scheme", Bearer: true}},
	{auth.ErrTokenExpired, ErrorSpec{Status: http.StatusUnauthorized, Code: "token_expired", Message: "Token expired.", Bearer: true}},
	{auth.ErrTokenInvalid, ErrorSpec{Status: http.StatusUnauthorized, Code: "invalid_token", Message: "Invalid token", Bearer: true, UseErrMessage: true}},
	{auth.ErrTokenWrongType, ErrorSpec{Status: http.StatusBadRequest, Code: "invalid_token_type", Message: "Invalid token type."}},
	{auth.ErrMalformedRefreshToken, ErrorSpec{Status: http.StatusBadRequest, Code: "malformed_refresh_token", Message: "Malformed refresh token"}},
	{auth.ErrRefreshReuseDetected, ErrorSpec{Status: http.StatusUnauthorized, Code: "refresh_reuse_detected", Message: "Refresh token reuse detected", Bearer: true}},
	{auth.ErrRefreshRotate, ErrorSpec{Status: http.StatusInternalServerError, Code: "cannot_refresh", Message: "Cannot refresh session"}},

	// value-object validation failures surface as 422 with the concrete reason
	{identity.ErrEmailEmpty, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
	{identity.ErrEmailInvalid, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
	{identity.ErrEmailTooLong, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
	{identity.ErrPasswordEmpty, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
	{identity.ErrPasswordTooShort, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
	{identity.ErrPasswordTooLong, ErrorSpec{Status: http.StatusUnprocessableEntity, Code: "validation_error", UseErrMessage: true}},
}

// internalSpec is the fallback for errors outside the declared taxonomy.
var internalSpec = ErrorSpec{
	Status:  http.StatusInternalServerError,
	Code:    "internal_error",
	Message: "An unexpected error occurred",
}

// SpecFor returns the transport mapping for a domain error, and whether the
// error belongs to the declared taxonomy.
func SpecFor(err error) (ErrorSpec, bool) {
	for _, entry := range errorSpecs {
		if errors.Is(err, entry.match) {
			return entry.spec, true
		}
	}
	return internalSpec, false
}

// WriteDomainError translates a domain error into the error envelope.
// Unmapped errors are logged at ERROR level and surface as a generic 500.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	spec, known := SpecFor(err)
	if !known {
		logger.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("unhandled error in http handler")
	}

	message := spec.Message
	if spec.UseErrMessage && err != nil && err.Error() != "" {
		message = err.Error()
	}

	writeEnvelope(w, spec.Status, spec.Code, message, spec.Bearer)
}

// WriteError writes an explicit error envelope, bypassing the taxonomy table.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, code, message, status == http.StatusUnauthorized)
}

func writeEnvelope(w http.ResponseWriter, status int, code, message string, bearer bool) {
	if bearer || status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := ErrorBody{Error: ErrorDetail{Code: code, Message: message}}
	// encoding a flat struct cannot fail; ignore the error on a committed response
	_ = json.NewEncoder(w).Encode(body)
}
