package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Company  CompanyConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
}

type AuthConfig struct {
	SessionSecret string
	SessionExpiry time.Duration

	// Attempt ledger thresholds. Both windows are trailing wall-clock windows
	// evaluated against the store on every check.
	MaxAttemptsPerIP    int
	IPThrottleWindow    time.Duration
	MaxFailedPerEmail   int
	LockoutWindow       time.Duration
	AttemptRetention    time.Duration
	CleanupInterval     time.Duration
}

type CompanyConfig struct {
	Name               string
	DefaultTotalShares int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "captable"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			SessionSecret:     sessionSecret,
			SessionExpiry:     getEnvAsDuration("SESSION_EXPIRY", 24*time.Hour),
			MaxAttemptsPerIP:  getEnvAsInt("MAX_ATTEMPTS_PER_IP", 10),
			IPThrottleWindow:  getEnvAsDuration("IP_THROTTLE_WINDOW", 30*time.Minute),
			MaxFailedPerEmail: getEnvAsInt("MAX_FAILED_PER_EMAIL", 5),
			LockoutWindow:     getEnvAsDuration("LOCKOUT_WINDOW", 30*time.Minute),
			AttemptRetention:  getEnvAsDuration("ATTEMPT_RETENTION", 24*time.Hour),
			CleanupInterval:   getEnvAsDuration("ATTEMPT_CLEANUP_INTERVAL", 1*time.Hour),
		},
		Company: CompanyConfig{
			Name:               getEnv("COMPANY_NAME", "Your Company"),
			DefaultTotalShares: int64(getEnvAsInt("DEFAULT_TOTAL_SHARES", 1000000)),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum security standards for the signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
