// Package postgres implements the store contract on PostgreSQL via the pgx
// driver. Conditional writes run inside an advisory-locked transaction;
// partial unique indexes back the slot and requester exclusivity rules.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	defaultConnIdleTime = 30 * time.Minute
	defaultPingTimeout  = 5 * time.Second
)

// NewDB creates a pgx/stdlib backed *sql.DB pool and validates the
// connection.
func NewDB(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("db: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnLifetime)
	db.SetConnMaxIdleTime(defaultConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Statements run one at a time: the extended query protocol rejects
// multi-command strings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		requester_id TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		vehicle_model TEXT NOT NULL DEFAULT '',
		vehicle_year INT NOT NULL DEFAULT 0,
		vehicle_trim TEXT NOT NULL DEFAULT '',
		slot_id INT NOT NULL,
		start_percent DOUBLE PRECISION NOT NULL,
		target_percent DOUBLE PRECISION NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		estimated_end_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_active_slot
		ON sessions (slot_id) WHERE status = 'charging'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_active_requester
		ON sessions (requester_id) WHERE status = 'charging'`,
	`CREATE TABLE IF NOT EXISTS queue_entries (
		id UUID PRIMARY KEY,
		requester_id TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		vehicle_model TEXT NOT NULL DEFAULT '',
		vehicle_year INT NOT NULL DEFAULT 0,
		vehicle_trim TEXT NOT NULL DEFAULT '',
		start_percent DOUBLE PRECISION NOT NULL,
		target_percent DOUBLE PRECISION NOT NULL,
		position INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
