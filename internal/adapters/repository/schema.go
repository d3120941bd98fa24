package repository

import "strings"

// Dialect selects SQL flavour differences between PostgreSQL and SQLite.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// winnerUniqueConstraint names the (event_id, contact_id) constraint.
const winnerUniqueConstraint = "event_winners_event_contact_key"

// schemaStatements returns the DDL for d. Every statement is idempotent.
func schemaStatements(d Dialect) []string {
	ts := "TIMESTAMPTZ"
	if d == DialectSQLite {
		ts = "TIMESTAMP"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    max_display_sessions INTEGER NOT NULL DEFAULT 1,
    display_photo_duration INTEGER NOT NULL DEFAULT 8,
    created_at {ts} NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT ''
)`,
		`CREATE TABLE IF NOT EXISTS registrations (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id),
    contact_id TEXT NOT NULL REFERENCES contacts(id),
    answers TEXT NOT NULL DEFAULT '{}',
    created_at {ts} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations(event_id)`,
		`CREATE TABLE IF NOT EXISTS event_winners (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id),
    registration_id TEXT NOT NULL REFERENCES registrations(id),
    contact_id TEXT NOT NULL REFERENCES contacts(id),
    number INTEGER NOT NULL,
    selected_by TEXT NOT NULL,
    selected_at {ts} NOT NULL,
    CONSTRAINT ` + winnerUniqueConstraint + ` UNIQUE (event_id, contact_id)
)`,
		`CREATE TABLE IF NOT EXISTS display_sessions (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id),
    device_code TEXT NOT NULL,
    session_token TEXT NOT NULL UNIQUE,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    last_heartbeat {ts},
    expires_at {ts} NOT NULL,
    created_at {ts} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_display_sessions_event_code ON display_sessions(event_id, device_code)`,
		`CREATE TABLE IF NOT EXISTS photos (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id),
    contact_id TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL,
    approved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {ts} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_event ON photos(event_id)`,
	}
	for i, s := range stmts {
		stmts[i] = strings.ReplaceAll(s, "{ts}", ts)
	}
	return stmts
}
