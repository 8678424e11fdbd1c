package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// KV backend selectors.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds configuration for the metering service.
type Config struct {
	HTTPPort string
	Backend  string
	Redis    RedisConfig
	Pricing  PricingConfig
	Archive  ArchiveConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PricingConfig holds pricing table settings. An empty FilePath means the
// built-in default table.
type PricingConfig struct {
	FilePath string
	Watch    bool
}

// ArchiveConfig holds settings for the optional Postgres archival sink.
type ArchiveConfig struct {
	Enabled     bool
	DatabaseURL string

	QueueSize    int
	BatchSize    int
	BatchWait    time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	backend := getEnvString("METER_BACKEND", BackendRedis)
	if backend != BackendRedis && backend != BackendMemory {
		return nil, fmt.Errorf("METER_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, backend)
	}

	cfg := &Config{
		HTTPPort: getEnvString("HTTP_PORT", "8080"),
		Backend:  backend,
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Pricing: PricingConfig{
			FilePath: getEnvString("PRICING_FILE", ""),
			Watch:    getEnvBool("PRICING_WATCH", true),
		},
		Archive: ArchiveConfig{
			Enabled:     getEnvBool("ARCHIVE_ENABLED", false),
			DatabaseURL: os.Getenv("DATABASE_URL"),

			QueueSize:    getEnvInt("ARCHIVE_QUEUE_SIZE", 10000),
			BatchSize:    getEnvInt("ARCHIVE_BATCH_SIZE", 100),
			BatchWait:    getEnvDuration("ARCHIVE_BATCH_WAIT", 5*time.Second),
			MaxRetries:   getEnvInt("ARCHIVE_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("ARCHIVE_RETRY_BACKOFF", 1*time.Second),

			MaxOpenConns:    getEnvInt("ARCHIVE_DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("ARCHIVE_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("ARCHIVE_DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("ARCHIVE_DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
	}

	if cfg.Archive.Enabled && cfg.Archive.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ARCHIVE_ENABLED is true")
	}

	return cfg, nil
}
