package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/background"
	"github.com/rfinch/captable/internal/config"
	"github.com/rfinch/captable/internal/database"
	"github.com/rfinch/captable/internal/handlers"
	middlewareCustom "github.com/rfinch/captable/internal/middleware"
	"github.com/rfinch/captable/internal/models"
	"github.com/rfinch/captable/internal/repositories"
	"github.com/rfinch/captable/internal/routes"
	"github.com/rfinch/captable/internal/services"
	pkgauth "github.com/rfinch/captable/pkg/auth"
	pkghttp "github.com/rfinch/captable/pkg/http"
	pkglogger "github.com/rfinch/captable/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	revocationRepo := repositories.NewSessionRevocationRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(attemptRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.AttemptRetention)

	// Initialize token manager
	tokenManager := auth.NewSessionTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)

	// Audit logging
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Attempt ledger service
	rateLimitConfig := services.RateLimitConfig{
		MaxAttemptsPerIP:  cfg.Auth.MaxAttemptsPerIP,
		IPThrottleWindow:  cfg.Auth.IPThrottleWindow,
		MaxFailedPerEmail: cfg.Auth.MaxFailedPerEmail,
		LockoutWindow:     cfg.Auth.LockoutWindow,
	}
	rateLimitService := services.NewRateLimitService(attemptRepo, rateLimitConfig, logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, revocationRepo, rateLimitService, tokenManager, logger, auditLogger)
	holderService := services.NewHolderService(userRepo, holdingRepo, logger, auditLogger)
	holdingService := services.NewHoldingService(holdingRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	holderHandler := handlers.NewHolderHandler(holderService, authService)
	holdingHandler := handlers.NewHoldingHandler(holdingService)

	// Bootstrap company row and first admin user
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := holdingRepo.EnsureCompany(ctx, cfg.Company.Name, cfg.Company.DefaultTotalShares); err != nil {
		logger.Error("failed to ensure company record", slog.Any("error", err))
		cancel()
		os.Exit(1)
	}
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, holderHandler, holdingHandler, tokenManager, userRepo, revocationRepo)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := models.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD does not meet password requirements: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		Name:         "Admin",
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
