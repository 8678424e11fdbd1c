// Package archive drains recorded usage into Postgres for long-term
// retention and offline reporting. The archive is a sink, never a read
// dependency: listings and summaries are always served from the KV store.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DBConfig holds archive database settings.
type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns default archive database settings.
func DefaultDBConfig(url string) DBConfig {
	return DBConfig{
		URL:             url,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// DB wraps the archive database connection.
type DB struct {
	conn *sqlx.DB
}

// NewDB connects to the archive database and configures the pool.
func NewDB(cfg DBConfig) (*DB, error) {
	conn, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// EnsureSchema creates the usage_records table if it does not exist. No
// cost column: costs are derived from the live pricing table on read and
// intentionally never persisted.
func (db *DB) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS usage_records (
			id                TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			model             TEXT NOT NULL,
			user_id           TEXT NOT NULL DEFAULT '',
			user_name         TEXT NOT NULL DEFAULT '',
			request_id        TEXT NOT NULL DEFAULT '',
			call_name         TEXT NOT NULL DEFAULT '',
			prompt_tokens     BIGINT NOT NULL DEFAULT 0,
			completion_tokens BIGINT NOT NULL DEFAULT 0,
			cached_tokens     BIGINT NOT NULL DEFAULT 0,
			total_tokens      BIGINT NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS usage_records_model_idx ON usage_records (model);
		CREATE INDEX IF NOT EXISTS usage_records_user_idx ON usage_records (user_id);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	return nil
}
