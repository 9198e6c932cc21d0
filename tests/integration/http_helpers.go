package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rfinch/captable/internal/auth"
	"github.com/rfinch/captable/internal/config"
	"github.com/rfinch/captable/internal/database"
	"github.com/rfinch/captable/internal/handlers"
	middlewareCustom "github.com/rfinch/captable/internal/middleware"
	"github.com/rfinch/captable/internal/routes"
	"github.com/rfinch/captable/internal/services"
	pkghttp "github.com/rfinch/captable/pkg/http"
	pkglogger "github.com/rfinch/captable/pkg/logger"
)

// TestServer wraps httptest.Server with the full handler stack wired against
// a real database.
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	Config       *config.Config
	TokenManager *auth.SessionTokenManager
}

// NewTestServer initializes a complete HTTP server against the given database
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret:     "test-secret-32-characters-long!!",
			SessionExpiry:     1 * time.Hour,
			MaxAttemptsPerIP:  10,
			IPThrottleWindow:  30 * time.Minute,
			MaxFailedPerEmail: 5,
			LockoutWindow:     30 * time.Minute,
			AttemptRetention:  24 * time.Hour,
			CleanupInterval:   1 * time.Hour,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			TrustedProxies: []string{},
		},
		Company: config.CompanyConfig{
			Name:               "Test Company",
			DefaultTotalShares: 1000000,
		},
	}

	userRepo, holdingRepo, attemptRepo, revocationRepo := InitializeRepositories(db)

	tokenManager := auth.NewSessionTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	rateLimitService := services.NewRateLimitService(attemptRepo, services.RateLimitConfig{
		MaxAttemptsPerIP:  cfg.Auth.MaxAttemptsPerIP,
		IPThrottleWindow:  cfg.Auth.IPThrottleWindow,
		MaxFailedPerEmail: cfg.Auth.MaxFailedPerEmail,
		LockoutWindow:     cfg.Auth.LockoutWindow,
	}, logger)

	authService := services.NewAuthService(userRepo, revocationRepo, rateLimitService, tokenManager, logger, auditLogger)
	holderService := services.NewHolderService(userRepo, holdingRepo, logger, auditLogger)
	holdingService := services.NewHoldingService(holdingRepo, logger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	holderHandler := handlers.NewHolderHandler(holderService, authService)
	holdingHandler := handlers.NewHoldingHandler(holdingService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders)
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, authHandler, holderHandler, holdingHandler, tokenManager, userRepo, revocationRepo)

	return &TestServer{
		Server:       httptest.NewServer(router),
		DB:           db,
		Config:       cfg,
		TokenManager: tokenManager,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST request with an optional bearer token
func (ts *TestServer) PostJSON(path, token string, body interface{}) (*http.Response, []byte, error) {
	return ts.doJSON(http.MethodPost, path, token, body)
}

// PutJSON sends a JSON PUT request with an optional bearer token
func (ts *TestServer) PutJSON(path, token string, body interface{}) (*http.Response, []byte, error) {
	return ts.doJSON(http.MethodPut, path, token, body)
}

// GetJSON sends a GET request with an optional bearer token
func (ts *TestServer) GetJSON(path, token string) (*http.Response, []byte, error) {
	return ts.doJSON(http.MethodGet, path, token, nil)
}

// Delete sends a DELETE request with an optional bearer token
func (ts *TestServer) Delete(path, token string) (*http.Response, []byte, error) {
	return ts.doJSON(http.MethodDelete, path, token, nil)
}

func (ts *TestServer) doJSON(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}

	return resp, respBody, nil
}
