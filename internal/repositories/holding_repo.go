package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/rfinch/captable/internal/database"
	"github.com/rfinch/captable/internal/models"
)

// HoldingRepository handles the per-holder share records and the singleton
// company row.
type HoldingRepository struct {
	db *database.DB
}

func NewHoldingRepository(db *database.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

func (r *HoldingRepository) GetByUserID(ctx context.Context, userID string) (*models.Holding, error) {
	query := `
		SELECT user_id, share_count, note, last_updated
		FROM holdings WHERE user_id = $1
	`

	var h models.Holding
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&h.UserID, &h.ShareCount, &h.Note, &h.LastUpdated,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &h, nil
}

// SetHolding updates count, note, and last_updated in a single statement so
// concurrent readers never observe a half-written record.
func (r *HoldingRepository) SetHolding(ctx context.Context, userID string, shareCount int64, note string) error {
	query := `
		UPDATE holdings SET share_count = $1, note = $2, last_updated = $3
		WHERE user_id = $4
	`

	result, err := r.db.Pool.Exec(ctx, query, shareCount, note, time.Now(), userID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListHolders returns every non-admin identity with its share count, for the
// admin dashboard. Percentages are derived by the caller.
func (r *HoldingRepository) ListHolders(ctx context.Context) ([]*models.HolderSummary, error) {
	query := `
		SELECT u.id, u.name, u.email, COALESCE(h.share_count, 0)
		FROM users u
		LEFT JOIN holdings h ON u.id = h.user_id
		WHERE u.role = $1
		ORDER BY u.name
	`

	rows, err := r.db.Pool.Query(ctx, query, models.RoleHolder)
	if err != nil {
		return nil, fmt.Errorf("failed to query holders: %w", err)
	}
	defer rows.Close()

	holders := make([]*models.HolderSummary, 0)
	for rows.Next() {
		var h models.HolderSummary
		if err := rows.Scan(&h.ID, &h.Name, &h.Email, &h.ShareCount); err != nil {
			return nil, fmt.Errorf("failed to scan holder: %w", err)
		}
		holders = append(holders, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return holders, nil
}

func (r *HoldingRepository) GetCompany(ctx context.Context) (*models.Company, error) {
	query := `SELECT total_shares, name, last_updated FROM company WHERE id = TRUE`

	var c models.Company
	err := r.db.Pool.QueryRow(ctx, query).Scan(&c.TotalShares, &c.Name, &c.LastUpdated)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

// SetTotalShares updates the authorized total in place. Allocation sums are
// deliberately not validated against it.
func (r *HoldingRepository) SetTotalShares(ctx context.Context, total int64) error {
	query := `UPDATE company SET total_shares = $1, last_updated = $2 WHERE id = TRUE`

	result, err := r.db.Pool.Exec(ctx, query, total, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// EnsureCompany inserts the singleton company row on first run. The boolean
// primary key guarantees at most one row ever exists.
func (r *HoldingRepository) EnsureCompany(ctx context.Context, name string, defaultTotal int64) error {
	query := `
		INSERT INTO company (id, total_shares, name, last_updated)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, defaultTotal, name, time.Now())
	return database.MapPostgresError(err)
}
