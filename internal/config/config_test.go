package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Verification.GracePeriod)
	assert.Equal(t, 10*time.Second, cfg.Verification.RetryInterval)
	assert.Equal(t, 5*time.Second, cfg.Verification.PollInterval)
	assert.Equal(t, 3, cfg.Verification.SubmitAttempts)
	assert.Equal(t, 10, cfg.Verification.PollAttempts)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/deployments")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("VERIFY_GRACE_SECONDS", "1")
	t.Setenv("VERIFY_SUBMIT_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/deployments", cfg.Storage.Postgres.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, time.Second, cfg.Verification.GracePeriod)
	assert.Equal(t, 5, cfg.Verification.SubmitAttempts)
}

func TestDatabaseURLImpliesPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/deployments")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Type)
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("VERIFY_POLL_ATTEMPTS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Verification.PollAttempts)
}
