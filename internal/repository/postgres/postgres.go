// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// Selected with database.driver=postgres. The SQL mirrors the SQLite backend
// statement for statement, so the counter protocol behaves the same on both.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/click-counter/internal/repository"
)

// Ensure DB satisfies the repository.Store interface at compile time.
var _ repository.Store = (*DB)(nil)

// DB provides Postgres-backed persistence for users and the global counter.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and runs migrations.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// Close releases database resources.
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			external_id       TEXT NOT NULL UNIQUE,
			username          TEXT NOT NULL,
			display_name      TEXT NOT NULL DEFAULT '',
			public_repo_count INTEGER NOT NULL DEFAULT 0,
			personal_clicks   BIGINT NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS global_counter (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			total_clicks BIGINT NOT NULL DEFAULT 0,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: apply migrations: %w", err)
		}
	}
	return nil
}
