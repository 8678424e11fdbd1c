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

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Empty(t, cfg.Pricing.FilePath)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 10000, cfg.Archive.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Archive.BatchWait)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("METER_BACKEND", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "redis.internal:6380")
	t.Setenv("REDIS_DIAL_TIMEOUT", "10s")
	t.Setenv("PRICING_FILE", "/etc/aimeter/pricing.yaml")
	t.Setenv("PRICING_WATCH", "false")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("DATABASE_URL", "postgres://meter:secret@db:5432/usage")
	t.Setenv("ARCHIVE_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	assert.Equal(t, 10*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, "/etc/aimeter/pricing.yaml", cfg.Pricing.FilePath)
	assert.False(t, cfg.Pricing.Watch)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 50, cfg.Archive.BatchSize)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("METER_BACKEND", "etcd")

	_, err := Load()
	assert.ErrorContains(t, err, "METER_BACKEND")
}

func TestLoadRequiresDatabaseURLForArchive(t *testing.T) {
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestEnvHelpersFallBackOnBadValues(t *testing.T) {
	t.Setenv("REDIS_POOL_SIZE", "lots")
	t.Setenv("REDIS_READ_TIMEOUT", "soon")
	t.Setenv("PRICING_WATCH", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
	assert.True(t, cfg.Pricing.Watch)
}
