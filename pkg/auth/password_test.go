package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/rfinch/captable/internal/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{
			name:       "valid strong password",
			password:   "SecureP@ss123",
			shouldFail: false,
		},
		{
			name:       "minimum length boundary",
			password:   "Aa1!aaaaaaaa",
			shouldFail: false,
		},
		{
			name:       "one below minimum length",
			password:   "Aa1!aaaaaaa",
			shouldFail: true,
		},
		{
			name:       "missing uppercase",
			password:   "securepass@123",
			shouldFail: true,
		},
		{
			name:       "missing lowercase",
			password:   "SECUREPASS@123",
			shouldFail: true,
		},
		{
			name:       "missing digit",
			password:   "SecurePass@xyz",
			shouldFail: true,
		},
		{
			name:       "missing special character",
			password:   "SecurePass123",
			shouldFail: true,
		},
		{
			name:       "special character outside accepted set",
			password:   "SecurePass123~",
			shouldFail: true,
		},
		{
			name:       "hyphen is not a special character",
			password:   "Secure-Pass-123",
			shouldFail: true,
		},
		{
			name:       "comma satisfies special requirement",
			password:   "SecurePass123,",
			shouldFail: false,
		},
		{
			name:       "over maximum length",
			password:   "Aa1!" + strings.Repeat("a", 130),
			shouldFail: true,
		},
		{
			name:       "one byte over the bcrypt input limit",
			password:   "Aa1!" + strings.Repeat("a", MaxPasswordLen-3),
			shouldFail: true,
		},
		{
			name:       "multibyte characters count once toward minimum length",
			password:   "Aa1!aaaaaaaé",
			shouldFail: false,
		},
		{
			name:       "eleven characters in twelve bytes is still too short",
			password:   "Aa1!aaaaaaé",
			shouldFail: true,
		},
		{
			name:       "empty password",
			password:   "",
			shouldFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail {
				if err == nil {
					t.Fatalf("expected validation to fail for %q", tt.password)
				}
				if !errors.Is(err, models.ErrWeakPassword) {
					t.Errorf("expected weak-password sentinel, got %v", err)
				}
				if err.Error() != "invalid password" {
					t.Errorf("error message must not enumerate requirements, got %q", err.Error())
				}
			} else if err != nil {
				t.Fatalf("expected %q to be accepted, got %v", tt.password, err)
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SecureP@ss123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "SecureP@ss123" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := ComparePassword(hash, "SecureP@ss123"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := ComparePassword(hash, "WrongP@ss123"); err == nil {
		t.Error("wrong password accepted")
	}
}

// Any password the policy accepts must also hash, so a validated request can
// never fail downstream on bcrypt's input limit.
func TestHashPassword_AcceptsMaximumPolicyLength(t *testing.T) {
	password := "Aa1!" + strings.Repeat("x", MaxPasswordLen-4)

	if err := ValidatePassword(password); err != nil {
		t.Fatalf("maximum-length password rejected by policy: %v", err)
	}
	if _, err := HashPassword(password); err != nil {
		t.Fatalf("policy-valid password failed to hash: %v", err)
	}
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
