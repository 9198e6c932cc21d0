package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rfinch/captable/internal/models"
)

// HoldingRepository defines the store operations for holdings and the
// singleton company record.
type HoldingRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Holding, error)
	SetHolding(ctx context.Context, userID string, shareCount int64, note string) error
	ListHolders(ctx context.Context) ([]*models.HolderSummary, error)
	GetCompany(ctx context.Context) (*models.Company, error)
	SetTotalShares(ctx context.Context, total int64) error
}

// HoldingService handles the share-count ledger and percentage math.
type HoldingService struct {
	repo   HoldingRepository
	logger *slog.Logger
}

// NewHoldingService creates a new HoldingService
func NewHoldingService(repo HoldingRepository, logger *slog.Logger) *HoldingService {
	return &HoldingService{
		repo:   repo,
		logger: logger,
	}
}

// HoldingView combines a holder's record with the derived percentage and the
// denominator used to compute it.
type HoldingView struct {
	Holding     *models.Holding
	TotalShares int64
	Percentage  float64
}

// GetHolding returns a holder's record together with its ownership percentage.
func (s *HoldingService) GetHolding(ctx context.Context, userID string) (*HoldingView, error) {
	holding, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get holding", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	company, err := s.repo.GetCompany(ctx)
	if err != nil {
		s.logger.Error("failed to get company record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &HoldingView{
		Holding:     holding,
		TotalShares: company.TotalShares,
		Percentage:  models.OwnershipPercentage(holding.ShareCount, company.TotalShares),
	}, nil
}

// OwnershipPercentage returns a holder's stake as a percentage of the
// company total. A zero total yields zero.
func (s *HoldingService) OwnershipPercentage(ctx context.Context, userID string) (float64, error) {
	view, err := s.GetHolding(ctx, userID)
	if err != nil {
		return 0, err
	}
	return view.Percentage, nil
}

// SetHolding updates a holder's share count and note. Administrator-only;
// the capability check happens at the routing layer.
func (s *HoldingService) SetHolding(ctx context.Context, userID string, shareCount int64, note string) error {
	if shareCount < 0 {
		return models.ErrBadRequest
	}

	if err := s.repo.SetHolding(ctx, userID, shareCount, note); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to set holding", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// SetTotal updates the authorized share total in place. The sum of
// allocations is deliberately not validated against it: administrators may
// temporarily over- or under-allocate.
func (s *HoldingService) SetTotal(ctx context.Context, total int64) error {
	if total < 1 {
		return models.ErrBadRequest
	}

	if err := s.repo.SetTotalShares(ctx, total); err != nil {
		s.logger.Error("failed to set total shares", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// GetCompany returns the singleton company record.
func (s *HoldingService) GetCompany(ctx context.Context) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx)
	if err != nil {
		s.logger.Error("failed to get company record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return company, nil
}
