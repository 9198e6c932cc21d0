package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrWeakPassword   = errors.New("password does not meet complexity policy")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Abuse-mitigation errors
	ErrThrottled     = errors.New("too many login attempts from this address")
	ErrAccountLocked = errors.New("account locked due to failed login attempts")
)
