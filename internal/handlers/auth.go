package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
	pkghttp "github.com/rfinch/captable/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	AttemptsRemaining(ctx context.Context, email string) int
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ResetPassword(ctx context.Context, adminID, targetID, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// ChangePasswordRequest represents the request body for a self password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ResetPasswordRequest represents the admin password-reset request body
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

// UserResponse represents an identity in HTTP responses
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = models.NormalizeEmail(req.Email)
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrThrottled):
			pkghttp.WriteTooManyRequests(w, "Too many login attempts. Please try again later.")
		case errors.Is(err, models.ErrAccountLocked):
			pkghttp.WriteTooManyRequests(w, "Account locked due to too many failed attempts. Please try again later.")
		case errors.Is(err, models.ErrUnauthorized):
			// Identical message whether the account exists or not.
			msg := "Invalid email or password."
			if remaining := h.service.AttemptsRemaining(r.Context(), req.Email); remaining > 0 && remaining <= 2 {
				msg = fmt.Sprintf("Invalid email or password. %d attempts remaining before lockout.", remaining)
			}
			pkghttp.WriteUnauthorized(w, msg)
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{
		Token: result.Token,
		User:  userModelToResponse(result.User),
	})
}

// Logout revokes the caller's sessions
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles a self-service password change
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect.")
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "New password does not meet the complexity requirements.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	// The change revoked every session, including this one.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Password changed. Please log in again.",
	})
}
