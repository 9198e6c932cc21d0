package models

import "time"

// LoginAttempt is one append-only row in the IP throttle ledger. Every login
// request that passes the throttle gate records one, regardless of outcome.
type LoginAttempt struct {
	ID          string    `db:"id"`
	IPAddress   string    `db:"ip_address"`
	AttemptTime time.Time `db:"attempt_time"`
}

// FailedLoginAttempt is one append-only row in the account lockout ledger,
// keyed by normalized email. Rows are never updated and never cleared by a
// later successful login.
type FailedLoginAttempt struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	IPAddress   string    `db:"ip_address"`
	AttemptTime time.Time `db:"attempt_time"`
}
