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

// HoldingServiceInterface defines the interface for the share-count ledger
type HoldingServiceInterface interface {
	GetHolding(ctx context.Context, userID string) (*services.HoldingView, error)
	SetHolding(ctx context.Context, userID string, shareCount int64, note string) error
	SetTotal(ctx context.Context, total int64) error
	GetCompany(ctx context.Context) (*models.Company, error)
}

// HoldingHandler handles holding and company-total HTTP requests
type HoldingHandler struct {
	service HoldingServiceInterface
}

// NewHoldingHandler creates a new HoldingHandler
func NewHoldingHandler(service HoldingServiceInterface) *HoldingHandler {
	return &HoldingHandler{
		service: service,
	}
}

// SetHoldingRequest represents the request body for an admin grant update
type SetHoldingRequest struct {
	ShareCount int64  `json:"share_count" validate:"gte=0,lte=10000000"`
	Note       string `json:"note" validate:"max=500"`
}

// SetTotalRequest represents the request body for updating the company total
type SetTotalRequest struct {
	TotalShares int64 `json:"total_shares" validate:"required,gte=1"`
}

// HoldingResponse is a holder's view of their own record
type HoldingResponse struct {
	ShareCount  int64   `json:"share_count"`
	Note        string  `json:"note"`
	LastUpdated string  `json:"last_updated"`
	TotalShares int64   `json:"total_shares"`
	Percentage  float64 `json:"percentage"`
}

// CompanyResponse is the singleton company record
type CompanyResponse struct {
	Name        string `json:"name"`
	TotalShares int64  `json:"total_shares"`
	LastUpdated string `json:"last_updated"`
}

// MyHolding returns the caller's own holding and ownership percentage
func (h *HoldingHandler) MyHolding(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	view, err := h.service.GetHolding(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No holding record")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HoldingResponse{
		ShareCount:  view.Holding.ShareCount,
		Note:        view.Holding.Note,
		LastUpdated: view.Holding.LastUpdated.Format("2006-01-02T15:04:05Z07:00"),
		TotalShares: view.TotalShares,
		Percentage:  view.Percentage,
	})
}

// SetHolding updates a holder's share count and note (admin only)
func (h *HoldingHandler) SetHolding(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "id")
	if holderID == "" {
		pkghttp.WriteBadRequest(w, "Holder ID is required")
		return
	}

	var req SetHoldingRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.SetHolding(r.Context(), holderID, req.ShareCount, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Holder not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid share count")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCompany returns the company record (admin only)
func (h *HoldingHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.GetCompany(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CompanyResponse{
		Name:        company.Name,
		TotalShares: company.TotalShares,
		LastUpdated: company.LastUpdated.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// SetTotal updates the authorized share total (admin only)
func (h *HoldingHandler) SetTotal(w http.ResponseWriter, r *http.Request) {
	var req SetTotalRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.SetTotal(r.Context(), req.TotalShares); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Total shares must be positive")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
