package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionRevocation invalidates every session established at or before
// RevokedAt. At most one row exists per user; a later revocation overwrites
// the earlier one. No server-side session store is kept, only this timestamp.
type SessionRevocation struct {
	UserID    string    `db:"user_id"`
	RevokedAt time.Time `db:"revoked_at"`
	Reason    string    `db:"reason"`
}

// Revocation reasons recorded in the registry.
const (
	RevocationReasonPasswordReset      = "password_reset"
	RevocationReasonAdminPasswordReset = "admin_password_reset"
	RevocationReasonLogout             = "logout"
)

// SessionClaims are the claims carried by a session token. IssuedAt doubles
// as the session-establishment time compared against the revocation registry.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
