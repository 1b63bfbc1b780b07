// Package config provides environment-driven configuration for auditdesk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL    Secret
	Port           string
	ListenHost     string
	CORSOrigins    []string
	LogLevel       string
	JWTSecret      Secret
	TokenTTL       time.Duration
	RedisURL       Secret
	DBMaxConns     int
	RetentionDays  int
	PurgeSchedule  string
	OTLPEndpoint   string
	ServiceName    string
	TrustedProxies []string
}

// LoadDotEnv loads KEY=VALUE pairs from path (default ".env", or ENV_FILE) into
// the process environment. Variables already set are left untouched and a
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = envOrDefault("ENV_FILE", ".env")
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   Secret(envOrDefault("DATABASE_URL", "")),
		Port:          envOrDefault("PORT", "3030"),
		ListenHost:    envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		JWTSecret:     Secret(envOrDefault("JWT_SECRET", "")),
		RedisURL:      Secret(envOrDefault("REDIS_URL", "")),
		PurgeSchedule: envOrDefault("ACTIVITY_PURGE_SCHEDULE", "@daily"),
		OTLPEndpoint:  envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:   envOrDefault("OTEL_SERVICE_NAME", "auditdesk"),
	}

	ttl, err := time.ParseDuration(envOrDefault("TOKEN_TTL", "24h"))
	if err != nil || ttl < time.Minute || ttl > 30*24*time.Hour {
		return nil, fmt.Errorf("TOKEN_TTL must be a duration between 1m and 720h")
	}
	cfg.TokenTTL = ttl

	dbMaxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "21"))
	if err != nil || dbMaxConns < 2 || dbMaxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = dbMaxConns

	retention, err := strconv.Atoi(envOrDefault("ACTIVITY_RETENTION_DAYS", "90"))
	if err != nil || retention < 1 || retention > 3650 {
		return nil, fmt.Errorf("ACTIVITY_RETENTION_DAYS must be an integer between 1 and 3650")
	}
	cfg.RetentionDays = retention

	cfg.CORSOrigins = splitList(envOrDefault("CORS_ORIGINS", "http://localhost:5173"))
	cfg.TrustedProxies = splitList(envOrDefault("TRUSTED_PROXIES", ""))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// TracingEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TracingEnabled() bool {
	return c.OTLPEndpoint != ""
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
