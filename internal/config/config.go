// Package config loads tool configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the deploy tool
type Config struct {
	DataDir      string
	Storage      StorageConfig
	Logging      LoggingConfig
	Metrics      MetricsConfig
	Verification VerificationConfig
}

// StorageConfig holds deployment history storage configuration
type StorageConfig struct {
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig holds the optional Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// VerificationConfig holds the explorer verification protocol intervals
type VerificationConfig struct {
	GracePeriod    time.Duration
	RetryInterval  time.Duration
	PollInterval   time.Duration
	SubmitAttempts int
	PollAttempts   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", defaultDataDir())

	cfg := &Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", filepath.Join(dataDir, "deployments.db")),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", false),
			Addr:    getEnv("METRICS_ADDR", "127.0.0.1:9464"),
		},
		Verification: VerificationConfig{
			GracePeriod:    getEnvSeconds("VERIFY_GRACE_SECONDS", 15),
			RetryInterval:  getEnvSeconds("VERIFY_RETRY_SECONDS", 10),
			PollInterval:   getEnvSeconds("VERIFY_POLL_SECONDS", 5),
			SubmitAttempts: getEnvInt("VERIFY_SUBMIT_ATTEMPTS", 3),
			PollAttempts:   getEnvInt("VERIFY_POLL_ATTEMPTS", 10),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	return cfg, nil
}

// defaultDataDir is ~/.smart-contracts, falling back to the working
// directory when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".smart-contracts")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
