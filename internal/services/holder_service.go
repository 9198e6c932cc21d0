package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/rfinch/captable/internal/models"
	pkgauth "github.com/rfinch/captable/pkg/auth"
	pkglogger "github.com/rfinch/captable/pkg/logger"
)

// HolderRepository defines the store operations for holder account management.
type HolderRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateHolder(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error)
	UpdateHolder(ctx context.Context, id, name, email string, shareCount int64) error
	DeleteHolder(ctx context.Context, id string) error
}

// HolderService handles administrator operations on holder accounts.
type HolderService struct {
	repo        HolderRepository
	holdings    HoldingRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewHolderService creates a new HolderService
func NewHolderService(repo HolderRepository, holdings HoldingRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *HolderService {
	return &HolderService{
		repo:        repo,
		holdings:    holdings,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateHolder creates the identity and its holding record together. Fails
// with ErrDuplicateEmail when the normalized email is already registered and
// ErrWeakPassword when the complexity policy is not met.
func (s *HolderService) CreateHolder(ctx context.Context, adminID, email, name, password string, shareCount int64, note string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || name == "" {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, models.ErrDuplicateEmail
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing holder", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleHolder,
	}

	created, err := s.repo.CreateHolder(ctx, user, shareCount, note)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			// Unique constraint won a race with the existence check above.
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to create holder", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogRegisterAction("holder_created", adminID, created.ID, map[string]string{
		"email_hash": pkglogger.HashForLogging(email),
	})

	return created, nil
}

// UpdateHolder edits a holder's name, email, and share count atomically.
func (s *HolderService) UpdateHolder(ctx context.Context, adminID, id, name, email string, shareCount int64) error {
	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || name == "" || shareCount < 0 {
		return models.ErrBadRequest
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get holder", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if target.IsAdmin() {
		return models.ErrForbidden
	}

	if err := s.repo.UpdateHolder(ctx, id, name, email, shareCount); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return models.ErrNotFound
		case errors.Is(err, models.ErrDuplicateEmail):
			return models.ErrDuplicateEmail
		}
		s.logger.Error("failed to update holder", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogRegisterAction("holder_updated", adminID, id, map[string]string{
		"email_hash": pkglogger.HashForLogging(email),
	})

	return nil
}

// DeleteHolder removes a holder and its holding record together.
// Administrator accounts can never be deleted through this path.
func (s *HolderService) DeleteHolder(ctx context.Context, adminID, id string) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get holder", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if target.IsAdmin() {
		return models.ErrForbidden
	}

	if err := s.repo.DeleteHolder(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete holder", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogRegisterAction("holder_deleted", adminID, id, nil)
	return nil
}

// RegisterSummary is the admin dashboard view: every holder with derived
// percentages, plus the allocation totals.
type RegisterSummary struct {
	Holders           []*models.HolderSummary
	TotalShares       int64
	TotalAllocated    int64
	UnallocatedShares int64
}

// ListHolders builds the dashboard summary. Holders are sorted by ownership
// percentage descending, then by last name ascending.
func (s *HolderService) ListHolders(ctx context.Context) (*RegisterSummary, error) {
	holders, err := s.holdings.ListHolders(ctx)
	if err != nil {
		s.logger.Error("failed to list holders", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	company, err := s.holdings.GetCompany(ctx)
	if err != nil {
		s.logger.Error("failed to get company record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var allocated int64
	for _, h := range holders {
		h.Percentage = models.OwnershipPercentage(h.ShareCount, company.TotalShares)
		allocated += h.ShareCount
	}

	sort.SliceStable(holders, func(i, j int) bool {
		if holders[i].Percentage != holders[j].Percentage {
			return holders[i].Percentage > holders[j].Percentage
		}
		return lastName(holders[i].Name) < lastName(holders[j].Name)
	})

	return &RegisterSummary{
		Holders:           holders,
		TotalShares:       company.TotalShares,
		TotalAllocated:    allocated,
		UnallocatedShares: company.TotalShares - allocated,
	}, nil
}

func lastName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}
