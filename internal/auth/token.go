package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rfinch/captable/internal/models"
)

// SessionTokenManager issues and validates signed session tokens. The token's
// IssuedAt claim is the session-establishment time; the revocation registry
// compares its per-user timestamp against it, so no session table is needed.
type SessionTokenManager struct {
	secret string
	expiry time.Duration
	now    func() time.Time
}

// NewSessionTokenManager creates a new SessionTokenManager
func NewSessionTokenManager(secret string, expiry time.Duration) *SessionTokenManager {
	return &SessionTokenManager{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// SetClock overrides the wall-clock source for deterministic tests.
func (tm *SessionTokenManager) SetClock(now func() time.Time) {
	tm.now = now
}

// Issue creates a session token for an authenticated user.
func (tm *SessionTokenManager) Issue(user *models.User) (string, error) {
	now := tm.now()

	claims := &models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a session token and returns its claims.
func (tm *SessionTokenManager) Validate(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("invalid token: missing issued-at")
	}

	return claims, nil
}

// SessionValid reports whether a session established at establishedAt is
// still live given the user's revocation timestamp (nil means never revoked).
// A session is invalid exactly when revokedAt >= establishedAt.
func SessionValid(revokedAt *time.Time, establishedAt time.Time) bool {
	if revokedAt == nil {
		return true
	}
	return revokedAt.Before(establishedAt)
}
