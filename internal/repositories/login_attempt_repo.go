package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rfinch/captable/internal/database"
)

// LoginAttemptRepository handles the two append-only attempt ledgers: the
// per-IP throttle ledger and the per-email lockout ledger. Rows are inserted
// and counted, never updated.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt appends one row to the IP throttle ledger.
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, ipAddress string, at time.Time) error {
	query := `
		INSERT INTO login_attempts (id, ip_address, attempt_time)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Pool.Exec(ctx, query, uuid.New().String(), ipAddress, at)
	return err
}

// CountAttemptsByIP returns the number of attempts from an IP since the given time.
func (r *LoginAttemptRepository) CountAttemptsByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = $1 AND attempt_time >= $2
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, ipAddress, since).Scan(&count)
	return count, err
}

// RecordFailedLogin appends one row to the email lockout ledger.
func (r *LoginAttemptRepository) RecordFailedLogin(ctx context.Context, email, ipAddress string, at time.Time) error {
	query := `
		INSERT INTO failed_login_attempts (id, email, ip_address, attempt_time)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool.Exec(ctx, query, uuid.New().String(), email, ipAddress, at)
	return err
}

// CountFailedByEmail returns the number of lockout-ledger rows for an email
// since the given time.
func (r *LoginAttemptRepository) CountFailedByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM failed_login_attempts
		WHERE email = $1 AND attempt_time >= $2
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, email, since).Scan(&count)
	return count, err
}

// DeleteAttemptsBefore prunes rows from both ledgers older than the cutoff.
func (r *LoginAttemptRepository) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE attempt_time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	deleted := result.RowsAffected()

	result, err = r.db.Pool.Exec(ctx, `DELETE FROM failed_login_attempts WHERE attempt_time < $1`, cutoff)
	if err != nil {
		return deleted, err
	}

	return deleted + result.RowsAffected(), nil
}
