package collector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

// StoredEvent is one received form POST.
type StoredEvent struct {
	ID         int64     `json:"id"`
	Event      string    `json:"event"`
	Variant    string    `json:"variant"`
	UserID     string    `json:"userId"`
	TS         int64     `json:"ts"`
	Meta       string    `json:"meta"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// SummaryRow aggregates one (event, variant) pair.
type SummaryRow struct {
	Event   string `json:"event"`
	Variant string `json:"variant"`
	Count   int64  `json:"count"`
	Users   int64  `json:"users"`
}

// Database stores received events in SQLite.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (and if needed creates) the events database at path.
func NewDatabase(path string) (*Database, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS events(
	  id          INTEGER PRIMARY KEY,
	  event       TEXT    NOT NULL,
	  variant     TEXT    NOT NULL,
	  user_id     TEXT    NOT NULL,
	  ts          INTEGER NOT NULL,
	  meta        TEXT    NOT NULL,
	  received_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts      ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_variant ON events(event, variant);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Insert stores ev and returns its row ID.
func (d *Database) Insert(ctx context.Context, ev StoredEvent) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO events(event, variant, user_id, ts, meta, received_at) VALUES(?,?,?,?,?,?)`,
		ev.Event, ev.Variant, ev.UserID, ev.TS, ev.Meta, ev.ReceivedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit events, newest first.
func (d *Database) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, event, variant, user_id, ts, meta, received_at FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []StoredEvent{}
	for rows.Next() {
		var ev StoredEvent
		var received int64
		if err := rows.Scan(&ev.ID, &ev.Event, &ev.Variant, &ev.UserID, &ev.TS, &ev.Meta, &received); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.ReceivedAt = time.UnixMilli(received).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Summary counts events and distinct users per (event, variant).
func (d *Database) Summary(ctx context.Context) ([]SummaryRow, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT event, variant, COUNT(*), COUNT(DISTINCT user_id)
	FROM events
	GROUP BY event, variant
	ORDER BY event, variant`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize events: %w", err)
	}
	defer rows.Close()

	summary := []SummaryRow{}
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.Event, &r.Variant, &r.Count, &r.Users); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary = append(summary, r)
	}
	return summary, rows.Err()
}
