// Package datalog appends experiment events to a local sqlite file:
// position reports, temperature samples, relay switches and command
// activity. The lab pulls the file after a run for analysis; nothing
// in the control path ever reads it back.
package datalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	code TEXT NOT NULL,
	position TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS temperatures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	temp_left REAL NOT NULL,
	temp_right REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT NOT NULL
);
`

// Log is an append-only experiment log. A nil *Log is valid and drops
// everything, so callers need no guards when logging is disabled.
type Log struct {
	db *sql.DB
}

// Open creates or opens the sqlite file at path and ensures the
// schema exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open datalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping datalog: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create datalog schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Position records a forwarded position report.
func (l *Log) Position(ts time.Time, code, position string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(`INSERT INTO positions (ts, code, position) VALUES (?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), code, position)
	if err != nil {
		return fmt.Errorf("log position: %w", err)
	}
	return nil
}

// Temperatures records one completed sensor sample.
func (l *Log) Temperatures(ts time.Time, left, right float64) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(`INSERT INTO temperatures (ts, temp_left, temp_right) VALUES (?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), left, right)
	if err != nil {
		return fmt.Errorf("log temperatures: %w", err)
	}
	return nil
}

// Event records a free-form event line (relay switches, commands,
// faults).
func (l *Log) Event(ts time.Time, kind, detail string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(`INSERT INTO events (ts, kind, detail) VALUES (?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), kind, detail)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}
