package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/services"
	pkghttp "github.com/rfinch/captable/pkg/http"
)

// HolderServiceInterface defines the interface for holder account management
type HolderServiceInterface interface {
	CreateHolder(ctx context.Context, adminID, email, name, password string, shareCount int64, note string) (*models.User, error)
	UpdateHolder(ctx context.Context, adminID, id, name, email string, shareCount int64) error
	DeleteHolder(ctx context.Context, adminID, id string) error
	ListHolders(ctx context.Context) (*services.RegisterSummary, error)
}

// HolderHandler handles administrator requests against the share register
type HolderHandler struct {
	service HolderServiceInterface
	auth    AuthServiceInterface
}

// NewHolderHandler creates a new HolderHandler
func NewHolderHandler(service HolderServiceInterface, authService AuthServiceInterface) *HolderHandler {
	return &HolderHandler{
		service: service,
		auth:    authService,
	}
}

// CreateHolderRequest represents the request body for creating a holder
type CreateHolderRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
	Password   string `json:"password" validate:"required"`
	ShareCount int64  `json:"share_count" validate:"gte=0,lte=10000000"`
	Note       string `json:"note" validate:"max=500"`
}

// UpdateHolderRequest represents the request body for updating a holder
type UpdateHolderRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=100"`
	Email      string `json:"email" validate:"required,email"`
	ShareCount int64  `json:"share_count" validate:"gte=0,lte=10000000"`
}

// HolderResponse is one register row in HTTP responses
type HolderResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	ShareCount int64   `json:"share_count"`
	Percentage float64 `json:"percentage"`
}

// RegisterResponse is the admin dashboard listing
type RegisterResponse struct {
	Holders           []*HolderResponse `json:"holders"`
	TotalShares       int64             `json:"total_shares"`
	TotalAllocated    int64             `json:"total_allocated"`
	UnallocatedShares int64             `json:"unallocated_shares"`
}

// ListHolders returns every holder with derived percentages
func (h *HolderHandler) ListHolders(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ListHolders(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	holders := make([]*HolderResponse, 0, len(summary.Holders))
	for _, holder := range summary.Holders {
		holders = append(holders, &HolderResponse{
			ID:         holder.ID,
			Name:       holder.Name,
			Email:      holder.Email,
			ShareCount: holder.ShareCount,
			Percentage: holder.Percentage,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RegisterResponse{
		Holders:           holders,
		TotalShares:       summary.TotalShares,
		TotalAllocated:    summary.TotalAllocated,
		UnallocatedShares: summary.UnallocatedShares,
	})
}

// CreateHolder creates a holder account with its holding record
func (h *HolderHandler) CreateHolder(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req CreateHolderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateHolder(r.Context(), claims.UserID, req.Email, req.Name, req.Password, req.ShareCount, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			pkghttp.WriteConflict(w, "Email already exists. Please choose a different one.")
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "Password does not meet the complexity requirements.")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid holder data")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userModelToResponse(created))
}

// UpdateHolder edits a holder's name, email, and share count
func (h *HolderHandler) UpdateHolder(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	holderID := chi.URLParam(r, "id")
	if holderID == "" {
		pkghttp.WriteBadRequest(w, "Holder ID is required")
		return
	}

	var req UpdateHolderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.UpdateHolder(r.Context(), claims.UserID, holderID, req.Name, req.Email, req.ShareCount)
	if err != nil {
		writeHolderError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteHolder removes a holder and its holding record
func (h *HolderHandler) DeleteHolder(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	holderID := chi.URLParam(r, "id")
	if holderID == "" {
		pkghttp.WriteBadRequest(w, "Holder ID is required")
		return
	}

	err := h.service.DeleteHolder(r.Context(), claims.UserID, holderID)
	if err != nil {
		writeHolderError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword lets an administrator set a new password for a holder
func (h *HolderHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	holderID := chi.URLParam(r, "id")
	if holderID == "" {
		pkghttp.WriteBadRequest(w, "Holder ID is required")
		return
	}

	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.auth.ResetPassword(r.Context(), claims.UserID, holderID, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "Password does not meet the complexity requirements.")
		default:
			writeHolderError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Password reset. The holder will be logged out.",
	})
}

// writeHolderError translates the shared error taxonomy of holder operations
func writeHolderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Holder not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Admin accounts cannot be modified through this endpoint")
	case errors.Is(err, models.ErrDuplicateEmail):
		pkghttp.WriteConflict(w, "Email already in use")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid holder data")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
