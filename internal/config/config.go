package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration

	// Credential token format shown on member devices: "plain" or "signed"
	TokenFormat     string
	TokenSigningKey string
	TokenIssuer     string
	TokenTTL        time.Duration

	// LedgerRequireReason turns the missed-workout reason into a hard precondition
	LedgerRequireReason bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
	// TrustedProxies may set X-Forwarded-For; requests from anyone else are keyed by peer address
	TrustedProxies []string

	LogLevel  string
	LogFormat string

	AWSRegion       string
	SESFromEmail    string
	SESFromName     string
	CoachAlertEmail string

	SessionCleanupSchedule string
}

// Load reads configuration from an optional .env file and environment variables with sensible defaults
func Load() *Config {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./gymdesk.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDuration: getDurationEnv("SESSION_DURATION", 24*time.Hour),

		TokenFormat:     strings.ToLower(getEnv("TOKEN_FORMAT", "plain")),
		TokenSigningKey: getEnv("TOKEN_SIGNING_KEY", ""),
		TokenIssuer:     getEnv("TOKEN_ISSUER", "gymdesk"),
		TokenTTL:        getDurationEnv("TOKEN_TTL", 2*time.Minute),

		LedgerRequireReason: getBoolEnv("LEDGER_REQUIRE_REASON", false),

		LoginRateLimit:  getIntEnv("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getDurationEnv("LOGIN_RATE_WINDOW", time.Minute),
		TrustedProxies:  getListEnv("TRUSTED_PROXIES"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		SESFromName:     getEnv("SES_FROM_NAME", "Gymdesk"),
		CoachAlertEmail: getEnv("COACH_ALERT_EMAIL", ""),

		SessionCleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@every 1h"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getListEnv reads a comma-separated list, dropping empty entries
func getListEnv(key string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(key), ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("ignoring invalid boolean setting", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}
