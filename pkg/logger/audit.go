package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event. Email is expected to already
// be hashed by the caller (HashForLogging); plaintext identifiers never
// belong in an audit line.
type AuditEvent struct {
	EventType     string
	UserID        string
	EmailHash     string
	IPAddress     string
	Success       bool
	FailureReason string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.EmailHash != "" {
		attrs = append(attrs, slog.String("email_hash", event.EmailHash))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogPasswordChange logs password change and reset events
func (al *AuditLogger) LogPasswordChange(eventType, userID, ipAddress string, success bool) {
	attrs := []slog.Attr{
		slog.String("audit_type", "password"),
		slog.String("event_type", eventType),
		slog.Bool("success", success),
		slog.String("user_id", userID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", ipAddress))
	}

	if success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogRegisterAction logs administrator actions against the share register
func (al *AuditLogger) LogRegisterAction(eventType, adminID, targetID string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "register"),
		slog.String("event_type", eventType),
		slog.String("admin_id", adminID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if targetID != "" {
		attrs = append(attrs, slog.String("target_id", targetID))
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
