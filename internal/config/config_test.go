package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/casereport")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "documents", cfg.StorageBucket)
	assert.False(t, cfg.StorageUseSSL)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.GenerationBaseURL)
	assert.Equal(t, "openrouter/auto", cfg.GenerationModel)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/app")
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("REQUEST_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.True(t, cfg.StorageUseSSL)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/casereport")
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("STORAGE_USE_SSL", "maybe")
	t.Setenv("REQUEST_TIMEOUT", "later")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.False(t, cfg.StorageUseSSL)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}
