package models

import (
	"strings"
	"time"
)

// Roles a user can hold. Administrators manage the register; holders own
// exactly one holding record and may only view their own data.
const (
	RoleHolder = "holder"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string
	Email        string // unique, stored lowercase
	Name         string
	PasswordHash string
	Role         string // "holder" or "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail canonicalizes an address for storage and lookup: trimmed and
// lowercased. Every path that writes or looks up an email must go through
// this, so a mixed-case address always resolves to the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin reports whether the user may perform register-management actions.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
