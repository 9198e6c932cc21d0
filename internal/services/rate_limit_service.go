package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkglogger "github.com/rfinch/captable/pkg/logger"
)

// AttemptLedgerRepository defines the store operations behind the attempt ledger.
type AttemptLedgerRepository interface {
	RecordAttempt(ctx context.Context, ipAddress string, at time.Time) error
	CountAttemptsByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
	RecordFailedLogin(ctx context.Context, email, ipAddress string, at time.Time) error
	CountFailedByEmail(ctx context.Context, email string, since time.Time) (int, error)
}

// RateLimitConfig holds the attempt-ledger thresholds. Both windows are
// trailing wall-clock windows re-evaluated against the store on every check.
type RateLimitConfig struct {
	MaxAttemptsPerIP  int
	IPThrottleWindow  time.Duration
	MaxFailedPerEmail int
	LockoutWindow     time.Duration
}

// RateLimitService is the attempt ledger: it records login attempts by IP and
// by email and decides whether a new attempt is permitted. There is no
// in-process caching of counts; single-node deployment is assumed.
type RateLimitService struct {
	repo   AttemptLedgerRepository
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(repo AttemptLedgerRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the wall-clock source for deterministic tests.
func (s *RateLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// RecordAttempt appends a row to the IP throttle ledger.
func (s *RateLimitService) RecordAttempt(ctx context.Context, ipAddress string) error {
	if err := s.repo.RecordAttempt(ctx, ipAddress, s.now()); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// IsIPThrottled reports whether the IP has reached the attempt threshold
// within the trailing window.
func (s *RateLimitService) IsIPThrottled(ctx context.Context, ipAddress string) (bool, error) {
	since := s.now().Add(-s.config.IPThrottleWindow)

	count, err := s.repo.CountAttemptsByIP(ctx, ipAddress, since)
	if err != nil {
		return false, fmt.Errorf("failed to count attempts by IP: %w", err)
	}

	if count >= s.config.MaxAttemptsPerIP {
		s.logger.Warn("IP throttled",
			slog.String("ip_address", ipAddress),
			slog.Int("attempts", count))
		return true, nil
	}

	return false, nil
}

// RecordFailedLogin appends a row to the email lockout ledger. The row is
// written before credential verification and is never cleared by a later
// success, so a burst of failures followed by one success does not reset the
// lockout clock.
func (s *RateLimitService) RecordFailedLogin(ctx context.Context, email, ipAddress string) error {
	if err := s.repo.RecordFailedLogin(ctx, email, ipAddress, s.now()); err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// IsAccountLocked reports whether the email has reached the failure threshold
// within the trailing window.
func (s *RateLimitService) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	since := s.now().Add(-s.config.LockoutWindow)

	count, err := s.repo.CountFailedByEmail(ctx, email, since)
	if err != nil {
		return false, fmt.Errorf("failed to count failed logins: %w", err)
	}

	if count >= s.config.MaxFailedPerEmail {
		s.logger.Warn("account locked",
			slog.String("email_hash", pkglogger.HashForLogging(email)),
			slog.Int("failed_attempts", count))
		return true, nil
	}

	return false, nil
}

// AttemptsRemaining returns how many more failures the email can accrue in
// the current window before lockout. Used for the login response hint.
func (s *RateLimitService) AttemptsRemaining(ctx context.Context, email string) (int, error) {
	since := s.now().Add(-s.config.LockoutWindow)

	count, err := s.repo.CountFailedByEmail(ctx, email, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count failed logins: %w", err)
	}

	remaining := s.config.MaxFailedPerEmail - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// LockoutWindow exposes the configured lockout window for user-facing
// "try again in N minutes" messages.
func (s *RateLimitService) LockoutWindow() time.Duration {
	return s.config.LockoutWindow
}
