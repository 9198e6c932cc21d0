package services_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
	pkglogger "github.com/rfinch/captable/pkg/logger"
)

func newTestHolderService(repo services.HolderRepository, holdings services.HoldingRepository) *services.HolderService {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return services.NewHolderService(repo, holdings, logger, pkglogger.NewAuditLogger(logger))
}

func TestHolderServiceCreateHolder_Success(t *testing.T) {
	var createdUser *models.User
	var createdCount int64
	repo := &services.MockHolderRepository{
		CreateHolderFunc: func(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error) {
			createdUser = user
			createdCount = shareCount
			created := *user
			created.ID = "user_123"
			return &created, nil
		},
	}

	service := newTestHolderService(repo, &services.MockHoldingRepository{})

	created, err := service.CreateHolder(context.Background(), "admin_1", "  New.Holder@Example.COM ", "New Holder", "Valid-Password-Okay-7!", 1000, "")

	require.NoError(t, err)
	assert.Equal(t, "user_123", created.ID)
	assert.Equal(t, "new.holder@example.com", createdUser.Email)
	assert.Equal(t, models.RoleHolder, createdUser.Role)
	assert.NotEqual(t, "Valid-Password-Okay-7!", createdUser.PasswordHash)
	assert.Equal(t, int64(1000), createdCount)
}

func TestHolderServiceCreateHolder_DuplicateEmail(t *testing.T) {
	repo := &services.MockHolderRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "user_existing", Email: email}, nil
		},
	}

	service := newTestHolderService(repo, &services.MockHoldingRepository{})

	_, err := service.CreateHolder(context.Background(), "admin_1", "taken@example.com", "New Holder", "Valid-Password-Okay-7!", 0, "")

	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestHolderServiceCreateHolder_DuplicateEmailRace(t *testing.T) {
	// The unique constraint fires even when the existence check saw nothing
	repo := &services.MockHolderRepository{
		CreateHolderFunc: func(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error) {
			return nil, models.ErrDuplicateEmail
		},
	}

	service := newTestHolderService(repo, &services.MockHoldingRepository{})

	_, err := service.CreateHolder(context.Background(), "admin_1", "taken@example.com", "New Holder", "Valid-Password-Okay-7!", 0, "")

	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestHolderServiceCreateHolder_WeakPassword(t *testing.T) {
	service := newTestHolderService(&services.MockHolderRepository{}, &services.MockHoldingRepository{})

	_, err := service.CreateHolder(context.Background(), "admin_1", "new@example.com", "New Holder", "alllowercase", 0, "")

	assert.ErrorIs(t, err, models.ErrWeakPassword)
}

func TestHolderServiceUpdateHolder_AdminTargetForbidden(t *testing.T) {
	repo := &services.MockHolderRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin}, nil
		},
	}

	service := newTestHolderService(repo, &services.MockHoldingRepository{})

	err := service.UpdateHolder(context.Background(), "admin_1", "admin_2", "Name", "name@example.com", 100)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestHolderServiceDeleteHolder_AdminTargetForbidden(t *testing.T) {
	deleted := false
	repo := &services.MockHolderRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin}, nil
		},
		DeleteHolderFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	service := newTestHolderService(repo, &services.MockHoldingRepository{})

	err := service.DeleteHolder(context.Background(), "admin_1", "admin_2")

	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.False(t, deleted)
}

func TestHolderServiceDeleteHolder_NotFound(t *testing.T) {
	service := newTestHolderService(&services.MockHolderRepository{}, &services.MockHoldingRepository{})

	err := service.DeleteHolder(context.Background(), "admin_1", "missing")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHolderServiceListHolders_SortsAndSummarizes(t *testing.T) {
	holdings := &services.MockHoldingRepository{
		ListHoldersFunc: func(ctx context.Context) ([]*models.HolderSummary, error) {
			return []*models.HolderSummary{
				{ID: "u1", Name: "Ada Lovelace", ShareCount: 100000},
				{ID: "u2", Name: "Grace Hopper", ShareCount: 250000},
				{ID: "u3", Name: "Alan Turing", ShareCount: 100000},
			}, nil
		},
		GetCompanyFunc: func(ctx context.Context) (*models.Company, error) {
			return &models.Company{TotalShares: 1000000, Name: "Test Company"}, nil
		},
	}

	service := newTestHolderService(&services.MockHolderRepository{}, holdings)

	summary, err := service.ListHolders(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Holders, 3)

	// Largest stake first; ties broken by last name ascending
	assert.Equal(t, "u2", summary.Holders[0].ID)
	assert.Equal(t, "u1", summary.Holders[1].ID) // Lovelace before Turing
	assert.Equal(t, "u3", summary.Holders[2].ID)

	assert.InDelta(t, 25.0, summary.Holders[0].Percentage, 1e-9)
	assert.Equal(t, int64(1000000), summary.TotalShares)
	assert.Equal(t, int64(450000), summary.TotalAllocated)
	assert.Equal(t, int64(550000), summary.UnallocatedShares)
}

func TestHolderServiceListHolders_EmptyRegister(t *testing.T) {
	service := newTestHolderService(&services.MockHolderRepository{}, &services.MockHoldingRepository{})

	summary, err := service.ListHolders(context.Background())

	require.NoError(t, err)
	assert.Empty(t, summary.Holders)
	assert.Equal(t, int64(1000000), summary.TotalShares)
	assert.Equal(t, int64(0), summary.TotalAllocated)
	assert.Equal(t, int64(1000000), summary.UnallocatedShares)
}
