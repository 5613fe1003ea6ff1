package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Single writer; every transition runs in one transaction on this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaRateCategories = `
CREATE TABLE IF NOT EXISTS rate_categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    cost_per_period INTEGER NOT NULL CHECK (cost_per_period >= 0),
    period_minutes INTEGER NOT NULL CHECK (period_minutes > 0)
);
`

const schemaDevices = `
CREATE TABLE IF NOT EXISTS devices (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    category_id TEXT NOT NULL REFERENCES rate_categories(id),
    timer_status TEXT NOT NULL DEFAULT 'idle',
    timer_start TIMESTAMP,
    timer_duration INTEGER,
    timer_elapsed INTEGER NOT NULL DEFAULT 0,
    last_paused_at TIMESTAMP,
    updated_at TIMESTAMP NOT NULL,
    CHECK ((timer_status = 'running') = (timer_start IS NOT NULL))
);
`

const schemaMembers = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    deposit INTEGER NOT NULL DEFAULT 0 CHECK (deposit >= 0),
    pin_hash TEXT NOT NULL DEFAULT ''
);
`

const schemaSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL REFERENCES devices(id),
    member_id TEXT REFERENCES members(id),
    user_id INTEGER,
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP,
    duration INTEGER,
    cost INTEGER,
    payment_type TEXT NOT NULL,
    status TEXT NOT NULL,
    is_member_transaction BOOLEAN NOT NULL DEFAULT 0
);
`

const schemaSessionsActiveIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_active_per_device
    ON sessions(device_id) WHERE status = 'active';
`

const schemaWalletTransactions = `
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL REFERENCES members(id),
    session_id TEXT,
    amount INTEGER NOT NULL,
    balance_before INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    kind TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

const schemaActivityEvents = `
CREATE TABLE IF NOT EXISTS activity_events (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    duration_added INTEGER,
    cost_added INTEGER,
    payment_method TEXT,
    wallet_before INTEGER,
    wallet_after INTEGER,
    meta TEXT
);
`

const schemaActivityEventsIndex = `
CREATE INDEX IF NOT EXISTS activity_events_session
    ON activity_events(session_id, occurred_at);
`

const schemaPayments = `
CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    shift_id TEXT,
    user_id INTEGER,
    session_id TEXT,
    amount INTEGER NOT NULL,
    type TEXT NOT NULL,
    method TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaRateCategories,
		schemaDevices,
		schemaMembers,
		schemaSessions,
		schemaSessionsActiveIndex,
		schemaWalletTransactions,
		schemaActivityEvents,
		schemaActivityEventsIndex,
		schemaPayments,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
