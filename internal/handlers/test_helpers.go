package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
	pkghttp "github.com/rfinch/captable/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext adds session claims to request context for testing
// authenticated endpoints
func WithSessionContext(req *http.Request, userID, role string) *http.Request {
	claims := &models.SessionClaims{
		UserID: userID,
		Role:   role,
	}
	ctx := context.WithValue(req.Context(), auth.SessionContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc             func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	AttemptsRemainingFunc func(ctx context.Context, email string) int
	LogoutFunc            func(ctx context.Context, userID string) error
	ChangePasswordFunc    func(ctx context.Context, userID, currentPassword, newPassword string) error
	ResetPasswordFunc     func(ctx context.Context, adminID, targetID, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, ipAddress)
}

func (m *MockAuthService) AttemptsRemaining(ctx context.Context, email string) int {
	if m.AttemptsRemainingFunc == nil {
		return 5
	}
	return m.AttemptsRemainingFunc(ctx, email)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, userID)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, adminID, targetID, newPassword string) error {
	if m.ResetPasswordFunc == nil {
		return nil
	}
	return m.ResetPasswordFunc(ctx, adminID, targetID, newPassword)
}
