package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rfinch/captable/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing session claims in context
	SessionContextKey contextKey = "session"
)

// RevocationChecker reads the revoked-before timestamp for a user.
type RevocationChecker interface {
	GetRevokedAt(ctx context.Context, userID string) (*time.Time, error)
}

// RequireSession validates the bearer session token and checks it against the
// revocation registry on every request. A session issued at or before the
// user's revocation timestamp is rejected even though the token itself still
// verifies. Registry read failures fail closed.
func RequireSession(tm *SessionTokenManager, revocations RevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := tm.Validate(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			revokedAt, err := revocations.GetRevokedAt(r.Context(), claims.UserID)
			if err != nil {
				http.Error(w, "unable to verify session status", http.StatusInternalServerError)
				return
			}

			if !SessionValid(revokedAt, claims.IssuedAt.Time) {
				http.Error(w, "session has been revoked, please log in again", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin enforces the administrator capability. The role is re-read
// from the store rather than trusted from the token, so a demotion takes
// effect on the next request.
func RequireAdmin(userRepo UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetSessionFromContext(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					http.Error(w, "user not found", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin() {
				http.Error(w, "forbidden: admin privileges required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts session claims from request context
func GetSessionFromContext(r *http.Request) *models.SessionClaims {
	claims, ok := r.Context().Value(SessionContextKey).(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// UserRepository interface for fetching user data
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
