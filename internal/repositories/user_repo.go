package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rfinch/captable/internal/database"
	"github.com/rfinch/captable/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1
	`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1
	`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

// Create inserts a bare identity with no holding row. Used for bootstrapping
// the administrator; holders are created through CreateHolder instead.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleHolder
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, email, name, password_hash, role, created_at, updated_at
	`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash,
		user.Role, user.CreatedAt, user.UpdatedAt,
	))
}

// CreateHolder inserts the identity and its holding record in one
// transaction so a crash never leaves an account without a holding row.
func (r *UserRepository) CreateHolder(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error) {
	user.ID = uuid.New().String()
	user.Role = models.RoleHolder

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO holdings (user_id, share_count, note, last_updated)
			VALUES ($1, $2, $3, $4)
		`, user.ID, shareCount, note, now)
		return err
	})
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return user, nil
}

// UpdateHolder updates the identity and holding of a non-admin account
// atomically. A duplicate email rolls back both updates.
func (r *UserRepository) UpdateHolder(ctx context.Context, id, name, email string, shareCount int64) error {
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE users SET name = $1, email = $2, updated_at = $3
			WHERE id = $4 AND role = $5
		`, name, email, time.Now(), id, models.RoleHolder)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
			UPDATE holdings SET share_count = $1, last_updated = $2
			WHERE user_id = $3
		`, shareCount, time.Now(), id)
		return err
	})

	return database.MapPostgresError(err)
}

// DeleteHolder removes a non-admin account. The holding and any revocation
// row go with it via ON DELETE CASCADE.
func (r *UserRepository) DeleteHolder(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1 AND role = $2`

	result, err := r.db.Pool.Exec(ctx, query, id, models.RoleHolder)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
