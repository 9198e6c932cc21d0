package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rfinch/captable/internal/database"
)

// SessionRevocationRepository holds one revoked-before timestamp per user.
// Sessions established at or before that timestamp are invalid; there is no
// server-side session store to enumerate.
type SessionRevocationRepository struct {
	db *database.DB
}

func NewSessionRevocationRepository(db *database.DB) *SessionRevocationRepository {
	return &SessionRevocationRepository{db: db}
}

// Revoke upserts the revocation row. A later revocation overwrites an
// earlier one.
func (r *SessionRevocationRepository) Revoke(ctx context.Context, userID string, revokedAt time.Time, reason string) error {
	query := `
		INSERT INTO session_revocations (user_id, revoked_at, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET revoked_at = EXCLUDED.revoked_at, reason = EXCLUDED.reason
	`

	_, err := r.db.Pool.Exec(ctx, query, userID, revokedAt, reason)
	return database.MapPostgresError(err)
}

// GetRevokedAt returns the revocation timestamp for a user, or nil when no
// revocation has ever been issued.
func (r *SessionRevocationRepository) GetRevokedAt(ctx context.Context, userID string) (*time.Time, error) {
	query := `SELECT revoked_at FROM session_revocations WHERE user_id = $1`

	var revokedAt time.Time
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&revokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &revokedAt, nil
}
