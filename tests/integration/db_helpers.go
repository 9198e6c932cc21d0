package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rfinch/captable/internal/database"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/repositories"
	"github.com/rfinch/captable/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("captable"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"session_revocations",
		"failed_login_attempts",
		"login_attempts",
		"holdings",
		"company",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.UserRepository,
	*repositories.HoldingRepository,
	*repositories.LoginAttemptRepository,
	*repositories.SessionRevocationRepository,
) {
	return repositories.NewUserRepository(db),
		repositories.NewHoldingRepository(db),
		repositories.NewLoginAttemptRepository(db),
		repositories.NewSessionRevocationRepository(db)
}

// SeedCompany inserts the singleton company record
func SeedCompany(ctx context.Context, pool *pgxpool.Pool, name string, totalShares int64) error {
	query := `
		INSERT INTO company (id, total_shares, name)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (id) DO UPDATE SET total_shares = $1, name = $2
	`
	if _, err := pool.Exec(ctx, query, totalShares, name); err != nil {
		return fmt.Errorf("failed to seed company: %w", err)
	}
	return nil
}

// SeedHolder inserts a holder with its holding row and hashed password
func SeedHolder(ctx context.Context, pool *pgxpool.Pool, email, name, password string, shareCount int64) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, $3, $4, 'holder')
		RETURNING id, email, name, password_hash, role, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, uuid.New().String(), email, name, hashedPassword).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert holder: %w", err)
	}

	holdingQuery := `INSERT INTO holdings (user_id, share_count) VALUES ($1, $2)`
	if _, err := pool.Exec(ctx, holdingQuery, user.ID, shareCount); err != nil {
		return nil, fmt.Errorf("failed to insert holding: %w", err)
	}

	return &user, nil
}

// SeedAdmin inserts an administrator account without a holding row
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, 'Admin', $3, 'admin')
		RETURNING id, email, name, password_hash, role, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, uuid.New().String(), email, hashedPassword).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert admin: %w", err)
	}

	return &user, nil
}

// SeedFailedLogins inserts aged failed-login rows for lockout window tests
func SeedFailedLogins(ctx context.Context, pool *pgxpool.Pool, email, ipAddress string, count int, age time.Duration) error {
	at := time.Now().UTC().Add(-age)
	for i := 0; i < count; i++ {
		query := `INSERT INTO failed_login_attempts (id, email, ip_address, attempt_time) VALUES ($1, $2, $3, $4)`
		if _, err := pool.Exec(ctx, query, uuid.New().String(), email, ipAddress, at); err != nil {
			return fmt.Errorf("failed to insert failed login: %w", err)
		}
	}
	return nil
}
