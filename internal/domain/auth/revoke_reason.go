package auth

import "fmt"

// RevokeReason records why a session or refresh credential left the active
// state. Values match the revoke_reason_enum PostgreSQL type.
type RevokeReason string

const (
	// RevokeReasonUserLogout is set when the user logs out a single device.
	RevokeReasonUserLogout RevokeReason = "user_logout"
	// RevokeReasonReuseDetected is set on a whole family and its session when
	// a consumed refresh credential is presented again.
	RevokeReasonReuseDetected RevokeReason = "reuse_detected"
	// RevokeReasonAdminForce is set by global logout (all devices).
	RevokeReasonAdminForce RevokeReason = "admin_force"
	// RevokeReasonPasswordChange is set when credentials are invalidated after
	// a password change.
	RevokeReasonPasswordChange RevokeReason = "password_change"
	// RevokeReasonRotated marks the predecessor in a rotation chain. It is not
	// an active revocation: the row keeps revoked_at NULL and leaves the
	// active state through used_at instead.
	RevokeReasonRotated RevokeReason = "rotated"
)

// ParseRevokeReason converts a stored string into a RevokeReason.
func ParseRevokeReason(value string) (RevokeReason, error) {
	reason := RevokeReason(value)
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid revoke reason: %q", value)
	}
	return reason, nil
}

// String returns the enum value as stored in the database.
func (r RevokeReason) String() string {
	return string(r)
}

// IsValid reports whether the value is one of the known reasons.
func (r RevokeReason) IsValid() bool {
	switch r {
	case RevokeReasonUserLogout,
		RevokeReasonReuseDetected,
		RevokeReasonAdminForce,
		RevokeReasonPasswordChange,
		RevokeReasonRotated:
		return true
	default:
		return false
	}
}
