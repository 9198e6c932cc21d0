package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfinch/captable/internal/handlers"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
)

func TestLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return &services.LoginResult{
				Token: "session_token_123",
				User: &models.User{
					ID:    "user_123",
					Email: email,
					Name:  "Ada Lovelace",
					Role:  models.RoleHolder,
				},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "SecureP@ss123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.LoginResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "session_token_123", resp.Token)
	assert.Equal(t, "user_123", resp.User.ID)
	assert.Equal(t, models.RoleHolder, resp.User.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestLogin_LockoutHintWhenFewAttemptsRemain(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
		AttemptsRemainingFunc: func(ctx context.Context, email string) int {
			return 2
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), "2 attempts remaining")
}

func TestLogin_NoHintWhenManyAttemptsRemain(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
		AttemptsRemainingFunc: func(ctx context.Context, email string) int {
			return 4
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 401, w.Code)
	assert.NotContains(t, w.Body.String(), "attempts remaining")
}

func TestLogin_ThrottledIP(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return nil, models.ErrThrottled
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "SecureP@ss123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 429, "rate_limit_exceeded")
}

func TestLogin_LockedAccount(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
			return nil, models.ErrAccountLocked
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "holder@example.com",
		Password: "SecureP@ss123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 429, "rate_limit_exceeded")
}

func TestLogin_InvalidBody(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", map[string]string{
		"email": "not-an-email",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestLogout_RequiresSession(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/logout", nil)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestLogout_Success(t *testing.T) {
	var loggedOut string
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/logout", nil)
	req = handlers.WithSessionContext(req, "user_123", models.RoleHolder)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "user_123", loggedOut)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			return models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/me/password", handlers.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "New-Password-Okay-7!",
	})
	req = handlers.WithSessionContext(req, "user_123", models.RoleHolder)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			return models.ErrWeakPassword
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/me/password", handlers.ChangePasswordRequest{
		CurrentPassword: "SecureP@ss123",
		NewPassword:     "weak",
	})
	req = handlers.WithSessionContext(req, "user_123", models.RoleHolder)

	w := httptest.NewRecorder()
	handler.ChangePassword(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}
