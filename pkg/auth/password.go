package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rfinch/captable/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 14 // OWASP 2026 recommendation
	MinPasswordLen = 12
	// bcrypt reads at most 72 bytes of input, so anything longer must be
	// rejected at validation time rather than surfacing as a hashing error.
	MaxPasswordLen = 72

	// The exact set of characters accepted as "special" by the complexity
	// policy. Anything outside this set does not satisfy the requirement.
	specialChars = `!@#$%^&*(),.?":{}|<>`
)

// PasswordValidationError holds validation failure details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	// Generic message to users - requirements are enumerated in the UI, not here
	return "invalid password"
}

// Unwrap lets callers match the sentinel with errors.Is.
func (e *PasswordValidationError) Unwrap() error {
	return models.ErrWeakPassword
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword enforces the complexity policy: at least 12 characters with
// mixed case, a digit, and a character from the specialChars set.
func ValidatePassword(password string) error {
	errs := make([]string, 0)

	// Minimum length counts characters; the maximum counts bytes because
	// that is the unit bcrypt limits on.
	if utf8.RuneCountInString(password) < MinPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at most %d bytes", MaxPasswordLen))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain at least one digit")
	}
	if !hasSpecial {
		errs = append(errs, "must contain at least one special character")
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}

	return nil
}
