package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/rfinch/captable/internal/repositories"
)

// CleanupManager periodically prunes aged login attempt rows from the database.
// Rows older than the retention cutoff no longer contribute to throttle or
// lockout counts, so keeping them only grows the tables.
type CleanupManager struct {
	attemptRepo *repositories.LoginAttemptRepository
	logger      *slog.Logger
	interval    time.Duration
	retention   time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	attemptRepo *repositories.LoginAttemptRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		attemptRepo: attemptRepo,
		logger:      logger,
		interval:    interval,
		retention:   retention,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup prunes attempt rows older than the retention window
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cm.logger.Info("starting login attempt cleanup")

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-cm.retention)
	rowsDeleted, err := cm.attemptRepo.DeleteAttemptsBefore(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("login attempt cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
