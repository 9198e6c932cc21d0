package services

import (
	"context"
	"time"

	"github.com/rfinch/captable/internal/models"
)

// MockCredentialRepository implements CredentialRepository for testing
type MockCredentialRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
}

func (m *MockCredentialRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// MockSessionRevoker implements SessionRevoker for testing
type MockSessionRevoker struct {
	RevokeFunc func(ctx context.Context, userID string, revokedAt time.Time, reason string) error
}

func (m *MockSessionRevoker) Revoke(ctx context.Context, userID string, revokedAt time.Time, reason string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, userID, revokedAt, reason)
	}
	return nil
}

// MockAttemptLedger implements AttemptLedger for testing
type MockAttemptLedger struct {
	RecordAttemptFunc     func(ctx context.Context, ipAddress string) error
	IsIPThrottledFunc     func(ctx context.Context, ipAddress string) (bool, error)
	RecordFailedLoginFunc func(ctx context.Context, email, ipAddress string) error
	IsAccountLockedFunc   func(ctx context.Context, email string) (bool, error)
	AttemptsRemainingFunc func(ctx context.Context, email string) (int, error)
}

func (m *MockAttemptLedger) RecordAttempt(ctx context.Context, ipAddress string) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, ipAddress)
	}
	return nil
}

func (m *MockAttemptLedger) IsIPThrottled(ctx context.Context, ipAddress string) (bool, error) {
	if m.IsIPThrottledFunc != nil {
		return m.IsIPThrottledFunc(ctx, ipAddress)
	}
	return false, nil
}

func (m *MockAttemptLedger) RecordFailedLogin(ctx context.Context, email, ipAddress string) error {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, email, ipAddress)
	}
	return nil
}

func (m *MockAttemptLedger) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	if m.IsAccountLockedFunc != nil {
		return m.IsAccountLockedFunc(ctx, email)
	}
	return false, nil
}

func (m *MockAttemptLedger) AttemptsRemaining(ctx context.Context, email string) (int, error) {
	if m.AttemptsRemainingFunc != nil {
		return m.AttemptsRemainingFunc(ctx, email)
	}
	return 0, nil
}

// MockHolderRepository implements HolderRepository for testing
type MockHolderRepository struct {
	GetByIDFunc      func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	CreateHolderFunc func(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error)
	UpdateHolderFunc func(ctx context.Context, id, name, email string, shareCount int64) error
	DeleteHolderFunc func(ctx context.Context, id string) error
}

func (m *MockHolderRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockHolderRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockHolderRepository) CreateHolder(ctx context.Context, user *models.User, shareCount int64, note string) (*models.User, error) {
	if m.CreateHolderFunc != nil {
		return m.CreateHolderFunc(ctx, user, shareCount, note)
	}
	created := *user
	created.ID = "user_123"
	return &created, nil
}

func (m *MockHolderRepository) UpdateHolder(ctx context.Context, id, name, email string, shareCount int64) error {
	if m.UpdateHolderFunc != nil {
		return m.UpdateHolderFunc(ctx, id, name, email, shareCount)
	}
	return nil
}

func (m *MockHolderRepository) DeleteHolder(ctx context.Context, id string) error {
	if m.DeleteHolderFunc != nil {
		return m.DeleteHolderFunc(ctx, id)
	}
	return nil
}

// MockHoldingRepository implements HoldingRepository for testing
type MockHoldingRepository struct {
	GetByUserIDFunc    func(ctx context.Context, userID string) (*models.Holding, error)
	SetHoldingFunc     func(ctx context.Context, userID string, shareCount int64, note string) error
	ListHoldersFunc    func(ctx context.Context) ([]*models.HolderSummary, error)
	GetCompanyFunc     func(ctx context.Context) (*models.Company, error)
	SetTotalSharesFunc func(ctx context.Context, total int64) error
}

func (m *MockHoldingRepository) GetByUserID(ctx context.Context, userID string) (*models.Holding, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockHoldingRepository) SetHolding(ctx context.Context, userID string, shareCount int64, note string) error {
	if m.SetHoldingFunc != nil {
		return m.SetHoldingFunc(ctx, userID, shareCount, note)
	}
	return nil
}

func (m *MockHoldingRepository) ListHolders(ctx context.Context) ([]*models.HolderSummary, error) {
	if m.ListHoldersFunc != nil {
		return m.ListHoldersFunc(ctx)
	}
	return []*models.HolderSummary{}, nil
}

func (m *MockHoldingRepository) GetCompany(ctx context.Context) (*models.Company, error) {
	if m.GetCompanyFunc != nil {
		return m.GetCompanyFunc(ctx)
	}
	return &models.Company{TotalShares: 1000000, Name: "Test Company"}, nil
}

func (m *MockHoldingRepository) SetTotalShares(ctx context.Context, total int64) error {
	if m.SetTotalSharesFunc != nil {
		return m.SetTotalSharesFunc(ctx, total)
	}
	return nil
}
