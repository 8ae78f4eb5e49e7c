// Package store provides SQLite-based persistence for regidx.
// It manages registry objects, webhook definitions, and webhook delivery
// logs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store represents the SQLite database store.
type Store struct {
	db *sql.DB
}

// New creates a new store connection.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema.
func (s *Store) Initialize() error {
	schema := `
	-- Registry objects
	CREATE TABLE IF NOT EXISTS objects (
		id TEXT PRIMARY KEY,
		uuid TEXT NOT NULL,
		register_id INTEGER NOT NULL,
		schema_id INTEGER NOT NULL,
		organisation_id TEXT,
		name TEXT,
		description TEXT,
		summary TEXT,
		version TEXT,
		size INTEGER DEFAULT 0,
		owner TEXT,
		locked BOOLEAN DEFAULT FALSE,
		folder TEXT,
		created DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated DATETIME DEFAULT CURRENT_TIMESTAMP,
		published DATETIME,
		depublished DATETIME,
		raw_data JSON NOT NULL
	);

	-- Webhook endpoint definitions
	CREATE TABLE IF NOT EXISTS webhooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		name TEXT,
		url TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT 'POST',
		enabled BOOLEAN DEFAULT TRUE,
		secret TEXT,
		headers JSON,
		events JSON NOT NULL,
		filters JSON,
		configuration JSON,
		retry_policy TEXT DEFAULT 'exponential',
		max_retries INTEGER DEFAULT 3,
		timeout_seconds INTEGER DEFAULT 30,
		successes INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		last_attempt DATETIME
	);

	-- Delivery logs (append-only; one row per attempt)
	CREATE TABLE IF NOT EXISTS webhook_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		webhook_id INTEGER NOT NULL,
		event_class TEXT NOT NULL,
		payload JSON,
		url TEXT NOT NULL,
		method TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		status_code INTEGER,
		response_body TEXT,
		error_message TEXT,
		next_retry_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (webhook_id) REFERENCES webhooks(id)
	);

	-- Config (tenant markers, etc.)
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_objects_register ON objects(register_id, schema_id);
	CREATE INDEX IF NOT EXISTS idx_objects_updated ON objects(updated);
	CREATE INDEX IF NOT EXISTS idx_logs_webhook ON webhook_logs(webhook_id);
	CREATE INDEX IF NOT EXISTS idx_logs_created ON webhook_logs(created_at);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// GetValue gets a value from the key-value store.
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetValue sets a value in the key-value store.
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?",
		key, value, value,
	)
	return err
}

// parseTimestamp parses a timestamp string from SQLite in various formats.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
