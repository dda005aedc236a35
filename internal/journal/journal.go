package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS live_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event       TEXT    NOT NULL,
	payload     TEXT    NOT NULL,
	received_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_live_events_event ON live_events(event);
`

// Entry is one recorded live event.
type Entry struct {
	ID         int64           `json:"id"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Journal appends live events to a sqlite file.
type Journal struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record stores one event payload.
func (j *Journal) Record(ctx context.Context, event string, payload json.RawMessage, receivedAt time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO live_events (event, payload, received_at) VALUES (?, ?, ?)`,
		event, string(payload), receivedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("record %s: %w", event, err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. An empty event matches all events.
func (j *Journal) Recent(ctx context.Context, event string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, event, payload, received_at FROM live_events`
	args := []any{}
	if event != "" {
		query += ` WHERE event = ?`
		args = append(args, event)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			payload  string
			received string
		)
		if err := rows.Scan(&e.ID, &e.Event, &payload, &received); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		if t, err := time.Parse(time.RFC3339Nano, received); err == nil {
			e.ReceivedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns how many entries exist per event name.
func (j *Journal) Count(ctx context.Context) (map[string]int64, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT event, COUNT(*) FROM live_events GROUP BY event`)
	if err != nil {
		return nil, fmt.Errorf("count journal: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			event string
			n     int64
		)
		if err := rows.Scan(&event, &n); err != nil {
			return nil, err
		}
		out[event] = n
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
