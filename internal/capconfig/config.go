// Copyright 2025 Certen Protocol
//
// Environment-variable driven configuration. Grounded on
// pkg/config/config.go's Load() + Validate() split: a struct of typed
// fields populated from os.Getenv with explicit defaults, validated
// separately so callers can Load() in tests without triggering
// production-only checks.

package capconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all environment-derived configuration for the proof
// bundle pipeline.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Storage
	DataDir        string
	Ed25519KeyPath string

	// Policy cache
	PolicyCacheCapacity int

	// Database (optional durable backend; empty DatabaseURL means
	// internal/capdb is not wired and internal/policy.InMemoryStore is used)
	DatabaseURL         string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int
	DatabaseConnMaxLife  time.Duration

	// Audit log
	AuditLogPath string
	AuditDurable bool

	// Logging
	LogLevel  string
	LogFormat string

	// Lint mode for policy compilation ("strict" or "relaxed")
	DefaultLintMode string
}

// Load reads configuration from environment variables. Required
// values have no defaults; call Validate() to enforce presence before
// starting a long-running service.
func Load() (*Config, error) {
	return &Config{
		ListenAddr:  getEnv("CAPCTL_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("CAPCTL_METRICS_ADDR", "0.0.0.0:9090"),

		DataDir:        getEnv("CAPCTL_DATA_DIR", "./data"),
		Ed25519KeyPath: getEnv("CAPCTL_ED25519_KEY_PATH", ""),

		PolicyCacheCapacity: getEnvInt("CAPCTL_POLICY_CACHE_CAPACITY", 1000),

		DatabaseURL:          getEnv("CAPCTL_DATABASE_URL", ""),
		DatabaseMaxOpenConns: getEnvInt("CAPCTL_DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns: getEnvInt("CAPCTL_DB_MAX_IDLE_CONNS", 5),
		DatabaseConnMaxLife:  getEnvDuration("CAPCTL_DB_CONN_MAX_LIFETIME", time.Hour),

		AuditLogPath: getEnv("CAPCTL_AUDIT_LOG_PATH", ""),
		AuditDurable: getEnvBool("CAPCTL_AUDIT_DURABLE", false),

		LogLevel:  getEnv("CAPCTL_LOG_LEVEL", "info"),
		LogFormat: getEnv("CAPCTL_LOG_FORMAT", "json"),

		DefaultLintMode: getEnv("CAPCTL_LINT_MODE", "strict"),
	}, nil
}

// Validate checks that configuration required for a durable,
// production-style deployment is present and internally consistent.
// Callers that only need the in-memory store/cache path (e.g. cmd/capctl
// one-shot invocations) may skip Validate and use Load's result directly.
func (c *Config) Validate() error {
	var errs []string

	if c.PolicyCacheCapacity <= 0 {
		errs = append(errs, "CAPCTL_POLICY_CACHE_CAPACITY must be positive")
	}

	if c.DatabaseURL != "" {
		if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
			errs = append(errs, "CAPCTL_DATABASE_URL must be a postgres:// or postgresql:// URL")
		}
	}

	if c.AuditDurable && c.AuditLogPath == "" {
		errs = append(errs, "CAPCTL_AUDIT_LOG_PATH is required when CAPCTL_AUDIT_DURABLE=true")
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("CAPCTL_LOG_FORMAT %q must be json or text", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("capconfig: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
