package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/models"
)

const testSecret = "test-secret-0123456789abcdef"

func testTokenManager() *auth.SessionTokenManager {
	return auth.NewSessionTokenManager(testSecret, 1*time.Hour)
}

func TestSessionTokenManager_IssueAndValidate(t *testing.T) {
	tm := testTokenManager()
	user := &models.User{
		ID:    "user_123",
		Email: "holder@example.com",
		Role:  models.RoleHolder,
	}

	token, err := tm.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.UserID)
	assert.Equal(t, "holder@example.com", claims.Email)
	assert.Equal(t, models.RoleHolder, claims.Role)
	assert.NotNil(t, claims.IssuedAt)
}

func TestSessionTokenManager_IssuedAtIsEstablishmentTime(t *testing.T) {
	tm := testTokenManager()
	established := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.SetClock(func() time.Time { return established })

	token, err := tm.Issue(&models.User{ID: "user_123", Role: models.RoleHolder})
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.True(t, claims.IssuedAt.Time.Equal(established))
}

func TestSessionTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := testTokenManager()
	token, err := tm.Issue(&models.User{ID: "user_123", Role: models.RoleHolder})
	require.NoError(t, err)

	other := auth.NewSessionTokenManager("different-secret-9876543210", 1*time.Hour)
	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestSessionTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := auth.NewSessionTokenManager(testSecret, 1*time.Hour)
	tm.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := tm.Issue(&models.User{ID: "user_123", Role: models.RoleHolder})
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestSessionTokenManager_RejectsGarbage(t *testing.T) {
	tm := testTokenManager()

	_, err := tm.Validate("not-a-token")
	assert.Error(t, err)
}

func TestSessionValid(t *testing.T) {
	revokeTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		revokedAt     *time.Time
		establishedAt time.Time
		want          bool
	}{
		{"never revoked", nil, revokeTime, true},
		{"established before revocation", &revokeTime, revokeTime.Add(-1 * time.Second), false},
		{"established exactly at revocation", &revokeTime, revokeTime, false},
		{"established after revocation", &revokeTime, revokeTime.Add(1 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.SessionValid(tt.revokedAt, tt.establishedAt))
		})
	}
}
