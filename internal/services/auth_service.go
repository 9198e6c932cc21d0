package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/models"
	pkgauth "github.com/rfinch/captable/pkg/auth"
	pkglogger "github.com/rfinch/captable/pkg/logger"
)

// CredentialRepository defines the store operations needed for authentication.
type CredentialRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionRevoker upserts the revoked-before timestamp for a user.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID string, revokedAt time.Time, reason string) error
}

// AttemptLedger is the abuse-mitigation gate consulted before credentials.
type AttemptLedger interface {
	RecordAttempt(ctx context.Context, ipAddress string) error
	IsIPThrottled(ctx context.Context, ipAddress string) (bool, error)
	RecordFailedLogin(ctx context.Context, email, ipAddress string) error
	IsAccountLocked(ctx context.Context, email string) (bool, error)
	AttemptsRemaining(ctx context.Context, email string) (int, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        CredentialRepository
	revocations SessionRevoker
	ledger      AttemptLedger
	tm          *auth.SessionTokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(repo CredentialRepository, revocations SessionRevoker, ledger AttemptLedger, tm *auth.SessionTokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		revocations: revocations,
		ledger:      ledger,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// SetClock overrides the wall-clock source for deterministic tests.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// LoginResult is returned from a successful login.
type LoginResult struct {
	Token string
	User  *models.User
	// AttemptsRemaining hints how many failures are left before lockout;
	// populated on failed attempts only.
	AttemptsRemaining int
}

// Login authenticates a user and issues a session token.
//
// The attempt ledger is consulted before any credential work: the IP throttle
// first, then the account lockout. The failed-login row for this attempt is
// written before the password comparison, so the lockout count includes the
// attempt in progress; an account with four recorded failures is rejected on
// the fifth attempt even when the supplied password is correct. Nothing here
// leaks whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	throttled, err := s.ledger.IsIPThrottled(ctx, ipAddress)
	if err != nil {
		s.logger.Error("failed to check IP throttle", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if throttled {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_throttled",
			EmailHash:     pkglogger.HashForLogging(email),
			IPAddress:     ipAddress,
			FailureReason: "ip_throttled",
			Success:       false,
		})
		return nil, models.ErrThrottled
	}

	if err := s.ledger.RecordAttempt(ctx, ipAddress); err != nil {
		s.logger.Error("failed to record attempt", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Pessimistic: the attempt counts toward lockout before the password is
	// checked, and a later success never removes it.
	if err := s.ledger.RecordFailedLogin(ctx, email, ipAddress); err != nil {
		s.logger.Error("failed to record failed login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	locked, err := s.ledger.IsAccountLocked(ctx, email)
	if err != nil {
		s.logger.Error("failed to check account lockout", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if locked {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_locked_out",
			EmailHash:     pkglogger.HashForLogging(email),
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, models.ErrAccountLocked
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(ctx, email, ipAddress, "invalid_credentials")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, email, ipAddress, "invalid_credentials")
	}

	token, err := s.tm.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{Token: token, User: user}, nil
}

// failLogin emits the failed-credential audit line. The ledger row was
// already written up front, so only the remaining-attempts hint is computed.
func (s *AuthService) failLogin(ctx context.Context, email, ipAddress, reason string) error {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		EmailHash:     pkglogger.HashForLogging(email),
		IPAddress:     ipAddress,
		FailureReason: reason,
		Success:       false,
	})
	return models.ErrUnauthorized
}

// AttemptsRemaining exposes the lockout hint for login error responses.
func (s *AuthService) AttemptsRemaining(ctx context.Context, email string) int {
	email = models.NormalizeEmail(email)
	remaining, err := s.ledger.AttemptsRemaining(ctx, email)
	if err != nil {
		return 0
	}
	return remaining
}

// Logout revokes every outstanding session for the user. The registry keeps
// one timestamp per identity, so logging out one device logs out all of them.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.revocations.Revoke(ctx, userID, s.now(), models.RevocationReasonLogout); err != nil {
		s.logger.Error("failed to revoke sessions", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// ChangePassword verifies the current password, applies the complexity
// policy, stores the new hash, and revokes every session established before
// the change. Cookies issued earlier remain structurally valid but are
// rejected on their next authenticated request.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogPasswordChange("password_change", userID, "", false)
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.revocations.Revoke(ctx, userID, s.now(), models.RevocationReasonPasswordReset); err != nil {
		s.logger.Error("failed to revoke sessions after password change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange("password_change", userID, "", true)
	return nil
}

// ResetPassword lets an administrator set a new password for a holder and
// revoke the holder's sessions. Administrator passwords cannot be reset
// through this path.
func (s *AuthService) ResetPassword(ctx context.Context, adminID, targetID, newPassword string) error {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if target.IsAdmin() {
		return models.ErrForbidden
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, targetID, hash); err != nil {
		s.logger.Error("failed to reset password", slog.String("user_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.revocations.Revoke(ctx, targetID, s.now(), models.RevocationReasonAdminPasswordReset); err != nil {
		s.logger.Error("failed to revoke sessions after password reset", slog.String("user_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset by admin",
		slog.String("admin_id", adminID),
		slog.String("target_id", targetID),
		slog.String("email_hash", pkglogger.HashForLogging(target.Email)))
	s.auditLogger.LogPasswordChange("admin_password_reset", targetID, "", true)
	return nil
}
