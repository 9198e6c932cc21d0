package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/handlers"
	"github.com/rfinch/captable/internal/middleware"
	"github.com/rfinch/captable/internal/repositories"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	holderHandler *handlers.HolderHandler,
	holdingHandler *handlers.HoldingHandler,
	tokenManager *auth.SessionTokenManager,
	userRepo *repositories.UserRepository,
	revocationRepo *repositories.SessionRevocationRepository,
) {
	// Edge rate limiting for the login endpoint; the attempt ledger enforces
	// the real throttle and lockout windows
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)

	// Protected routes - valid, unrevoked session required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokenManager, revocationRepo))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/me/holding", holdingHandler.MyHolding)
		r.Post("/me/password", authHandler.ChangePassword)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(userRepo))

			r.Get("/holders", holderHandler.ListHolders)
			r.Post("/holders", holderHandler.CreateHolder)
			r.Put("/holders/{id}", holderHandler.UpdateHolder)
			r.Delete("/holders/{id}", holderHandler.DeleteHolder)
			r.Post("/holders/{id}/holding", holdingHandler.SetHolding)
			r.Post("/holders/{id}/reset-password", holderHandler.ResetPassword)

			r.Get("/company", holdingHandler.GetCompany)
			r.Put("/company/total", holdingHandler.SetTotal)
		})
	})
}
