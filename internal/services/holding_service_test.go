package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
)

func newTestHoldingService(repo services.HoldingRepository) *services.HoldingService {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return services.NewHoldingService(repo, logger)
}

func TestHoldingServiceGetHolding_ComputesPercentage(t *testing.T) {
	repo := &services.MockHoldingRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.Holding, error) {
			return &models.Holding{UserID: userID, ShareCount: 2500, LastUpdated: time.Now()}, nil
		},
		GetCompanyFunc: func(ctx context.Context) (*models.Company, error) {
			return &models.Company{TotalShares: 10000000, Name: "Test Company"}, nil
		},
	}

	service := newTestHoldingService(repo)

	view, err := service.GetHolding(context.Background(), "user_123")

	require.NoError(t, err)
	assert.Equal(t, int64(2500), view.Holding.ShareCount)
	assert.Equal(t, int64(10000000), view.TotalShares)
	assert.InDelta(t, 0.025, view.Percentage, 1e-9)
}

func TestHoldingServiceGetHolding_ZeroTotalYieldsZeroPercentage(t *testing.T) {
	repo := &services.MockHoldingRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.Holding, error) {
			return &models.Holding{UserID: userID, ShareCount: 500}, nil
		},
		GetCompanyFunc: func(ctx context.Context) (*models.Company, error) {
			return &models.Company{TotalShares: 0, Name: "Test Company"}, nil
		},
	}

	service := newTestHoldingService(repo)

	view, err := service.GetHolding(context.Background(), "user_123")

	require.NoError(t, err)
	assert.Zero(t, view.Percentage)
}

func TestHoldingServiceGetHolding_NotFound(t *testing.T) {
	service := newTestHoldingService(&services.MockHoldingRepository{})

	_, err := service.GetHolding(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHoldingServiceSetHolding_RejectsNegativeCount(t *testing.T) {
	called := false
	repo := &services.MockHoldingRepository{
		SetHoldingFunc: func(ctx context.Context, userID string, shareCount int64, note string) error {
			called = true
			return nil
		},
	}

	service := newTestHoldingService(repo)

	err := service.SetHolding(context.Background(), "user_123", -1, "")

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.False(t, called)
}

func TestHoldingServiceSetHolding_AllowsZeroCount(t *testing.T) {
	var gotCount int64 = -1
	repo := &services.MockHoldingRepository{
		SetHoldingFunc: func(ctx context.Context, userID string, shareCount int64, note string) error {
			gotCount = shareCount
			return nil
		},
	}

	service := newTestHoldingService(repo)

	err := service.SetHolding(context.Background(), "user_123", 0, "fully diluted out")

	require.NoError(t, err)
	assert.Equal(t, int64(0), gotCount)
}

func TestHoldingServiceSetTotal_RejectsNonPositiveTotal(t *testing.T) {
	service := newTestHoldingService(&services.MockHoldingRepository{})

	assert.ErrorIs(t, service.SetTotal(context.Background(), 0), models.ErrBadRequest)
	assert.ErrorIs(t, service.SetTotal(context.Background(), -100), models.ErrBadRequest)
}

func TestHoldingServiceSetTotal_DoesNotValidateAgainstAllocations(t *testing.T) {
	// Lowering the total below the allocated sum is allowed; percentages
	// simply exceed 100 until the register is rebalanced.
	var gotTotal int64
	repo := &services.MockHoldingRepository{
		SetTotalSharesFunc: func(ctx context.Context, total int64) error {
			gotTotal = total
			return nil
		},
	}

	service := newTestHoldingService(repo)

	err := service.SetTotal(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, int64(100), gotTotal)
}

func TestOwnershipPercentage(t *testing.T) {
	tests := []struct {
		name  string
		count int64
		total int64
		want  float64
	}{
		{"quarter", 250000, 1000000, 25.0},
		{"small stake", 2500, 10000000, 0.025},
		{"zero shares", 0, 1000000, 0.0},
		{"zero total", 500, 0, 0.0},
		{"negative total", 500, -1, 0.0},
		{"over-allocated", 2000000, 1000000, 200.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, models.OwnershipPercentage(tt.count, tt.total), 1e-9)
		})
	}
}
