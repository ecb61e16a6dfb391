package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/dominject/internal/dbopen"
)

// Schema is the event log table. Applied by OpenSQLite; callers supplying
// their own *sql.DB apply it themselves.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id     TEXT PRIMARY KEY,
	time   TEXT NOT NULL,
	type   TEXT NOT NULL,
	url    TEXT NOT NULL DEFAULT '',
	theme  TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_time ON events(time);
`

// SQLite appends events to a local event log. Writes go through the busy
// retry helper so a concurrent reader never surfaces as a sink error.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// NewSQLite wraps an existing database. Close does not close db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// OpenSQLite opens (and creates if needed) an event log at path.
// Close closes the database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("sink: open event log: %w", err)
	}
	return &SQLite{db: db, owned: true}, nil
}

func (s *SQLite) Write(ctx context.Context, ev Event) error {
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO events (id, time, type, url, theme, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Time.UTC().Format(time.RFC3339Nano), ev.Type, ev.URL, ev.Theme, ev.Detail)
	if err != nil {
		return fmt.Errorf("sink: insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, type, url, theme, detail FROM events ORDER BY time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sink: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ev.ID, &ts, &ev.Type, &ev.URL, &ev.Theme, &ev.Detail); err != nil {
			return nil, fmt.Errorf("sink: scan event: %w", err)
		}
		if ev.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("sink: parse event time: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
