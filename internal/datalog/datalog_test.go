package datalog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Position(ts, "1", "LEFT"); err != nil {
		t.Fatalf("Position: %v", err)
	}
	if err := l.Temperatures(ts, 24.5, 26.5); err != nil {
		t.Fatalf("Temperatures: %v", err)
	}
	if err := l.Event(ts, "relay", "RELAY_HEAT:1"); err != nil {
		t.Fatalf("Event: %v", err)
	}

	var code, position string
	row := l.db.QueryRow(`SELECT code, position FROM positions`)
	if err := row.Scan(&code, &position); err != nil {
		t.Fatalf("scan position: %v", err)
	}
	if code != "1" || position != "LEFT" {
		t.Errorf("got %q %q, want \"1\" \"LEFT\"", code, position)
	}

	var left, right float64
	row = l.db.QueryRow(`SELECT temp_left, temp_right FROM temperatures`)
	if err := row.Scan(&left, &right); err != nil {
		t.Fatalf("scan temperatures: %v", err)
	}
	if left != 24.5 || right != 26.5 {
		t.Errorf("got %v %v, want 24.5 26.5", left, right)
	}

	var kind, detail string
	row = l.db.QueryRow(`SELECT kind, detail FROM events`)
	if err := row.Scan(&kind, &detail); err != nil {
		t.Fatalf("scan event: %v", err)
	}
	if kind != "relay" || detail != "RELAY_HEAT:1" {
		t.Errorf("got %q %q, want \"relay\" \"RELAY_HEAT:1\"", kind, detail)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Event(ts, "system", "STARTUP"); err != nil {
		t.Fatalf("Event: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d events after reopen, want 1", n)
	}
}

func TestNilLogDropsEverything(t *testing.T) {
	var l *Log
	ts := time.Now()
	if err := l.Position(ts, "0", "NONE"); err != nil {
		t.Errorf("nil Position: %v", err)
	}
	if err := l.Temperatures(ts, 0, 0); err != nil {
		t.Errorf("nil Temperatures: %v", err)
	}
	if err := l.Event(ts, "x", "y"); err != nil {
		t.Errorf("nil Event: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
