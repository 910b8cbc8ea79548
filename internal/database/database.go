// Package database manages the PostgreSQL connection and the persistence of
// maintenance windows. The tracker core never owns a record: the engine
// reads transient views through GetRecords each tick, and every operator
// action is one targeted UPDATE here followed by the next tick picking the
// change up.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the PostgreSQL connection pool and provides query methods.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate runs database schema migrations.
// An advisory lock prevents concurrent replicas from racing on DDL statements.
func (db *DB) Migrate(ctx context.Context) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection for migration: %w", err)
	}
	defer conn.Release()

	// Application-specific lock ID to avoid collisions with other apps on
	// the same PostgreSQL instance.
	const migrationLockID int64 = 0x4943_4454 // "ICDT"
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)

	schema := `
	CREATE TABLE IF NOT EXISTS maintenance_windows (
		id                   TEXT PRIMARY KEY,
		provider             TEXT NOT NULL,
		kind                 TEXT NOT NULL,
		start_time           TIMESTAMPTZ NOT NULL,
		end_time             TIMESTAMPTZ,
		until_further_notice BOOLEAN NOT NULL DEFAULT FALSE,
		status               TEXT NOT NULL DEFAULT 'upcoming',
		completion_time      TIMESTAMPTZ,
		completed_by         TEXT NOT NULL DEFAULT '',
		bo_deleted           BOOLEAN NOT NULL DEFAULT FALSE,
		bo_deleted_by        TEXT NOT NULL DEFAULT '',
		bo_deleted_at        TIMESTAMPTZ,
		cancellation_pending BOOLEAN NOT NULL DEFAULT FALSE,
		deletion_pending     BOOLEAN NOT NULL DEFAULT FALSE,
		snoozed_until        TIMESTAMPTZ,
		recorder             TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_maintenance_windows_provider ON maintenance_windows(provider);
	CREATE INDEX IF NOT EXISTS idx_maintenance_windows_start_time ON maintenance_windows(start_time);
	CREATE INDEX IF NOT EXISTS idx_maintenance_windows_status ON maintenance_windows(status);
	`

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
