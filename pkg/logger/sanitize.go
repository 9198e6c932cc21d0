package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashForLogging returns the first 8 hex chars of the SHA-256 of a sensitive
// value, enough to correlate log lines without ever writing the value itself.
func HashForLogging(sensitive string) string {
	if sensitive == "" {
		return "NONE"
	}
	sum := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(sum[:])[:8]
}

// SanitizeQueryString reports whether a query string contains sensitive
// parameters and should be redacted wholesale from request logs.
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"token",
		"secret",
		"email",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
