package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"viewergate/internal/platform/config"
)

// DB wraps a database/sql pool opened with the pgx driver.
type DB struct {
	*sql.DB
}

// New opens a pool from cfg. Returns nil if the DSN is empty (Postgres not configured).
func New(cfg config.PostgresConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &DB{DB: db}, nil
}

func (d *DB) Health(ctx context.Context) error {
	return d.PingContext(ctx)
}

// Schema is applied at startup and by integration tests.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS verification_profiles (
		account_id UUID PRIMARY KEY,
		full_name TEXT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		estimated_age INTEGER,
		gender TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verified_at TIMESTAMPTZ,
		deletion_requested_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_entities (
		key TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		identifiers TEXT[] NOT NULL DEFAULT '{}',
		cover_ref TEXT NOT NULL DEFAULT '',
		outbound_link TEXT NOT NULL DEFAULT '',
		gender_sensitive BOOLEAN NOT NULL DEFAULT TRUE,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_collabs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		member_keys TEXT[] NOT NULL,
		cover_ref TEXT NOT NULL DEFAULT '',
		outbound_link TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		category TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		account_id UUID,
		action TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT '',
		device TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_account ON audit_events (account_id, occurred_at)`,
}

// Migrate applies Schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
