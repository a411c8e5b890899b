// Package auth implements the session and refresh-credential bounded context.
//
// The aggregate roots are Session (one row per device/browser binding) and
// RefreshCredential (one row per issued refresh token). Refresh credentials
// form rotation families: every rotation consumes the predecessor exactly once
// and inserts a successor carrying the same family and session identifiers.
// Presenting a consumed credential again is treated as a compromise indicator
// and revokes the whole family plus its session.
//
// The package also defines the domain error taxonomy for bearer-credential
// verification and the repository/unit-of-work interfaces implemented by the
// PostgreSQL persistence layer.
package auth
