// Package store provides SQLite-based persistence of HID event counts.
//
// IMPORTANT: Only aggregate counts are stored - never key codes,
// coordinates, or any other event payload. The store answers "how many
// keyboard/mouse events occurred during a session", nothing finer.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the hidmond event-count store.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_ns  INTEGER NOT NULL,
    ended_ns    INTEGER,
    hostname    TEXT
);

CREATE TABLE IF NOT EXISTS event_counts (
    session_id  INTEGER NOT NULL REFERENCES sessions(id),
    hid_type    TEXT NOT NULL,
    count       INTEGER NOT NULL,
    updated_ns  INTEGER NOT NULL,
    PRIMARY KEY (session_id, hid_type)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_ns);
`

// Store is the SQLite event-count store.
type Store struct {
	db *sql.DB
}

// Session is one daemon run.
type Session struct {
	ID        int64
	StartedNs int64
	EndedNs   *int64
	Hostname  string
	Counts    map[string]uint64
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginSession records the start of a daemon run and returns the session id.
func (s *Store) BeginSession(hostname string) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO sessions (started_ns, hostname) VALUES (?, ?)`,
		time.Now().UnixNano(), hostname,
	)
	if err != nil {
		return 0, fmt.Errorf("begin session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get session id: %w", err)
	}
	return id, nil
}

// EndSession marks the session as finished.
func (s *Store) EndSession(sessionID int64) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_ns = ? WHERE id = ?`,
		time.Now().UnixNano(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// RecordCount upserts the running event count for one device type in a
// session. Counts are cumulative per session, so each flush overwrites the
// previous value.
func (s *Store) RecordCount(sessionID int64, hidType string, count uint64) error {
	_, err := s.db.Exec(`
		INSERT INTO event_counts (session_id, hid_type, count, updated_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, hid_type) DO UPDATE SET
			count = excluded.count,
			updated_ns = excluded.updated_ns`,
		sessionID, hidType, int64(count), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record count: %w", err)
	}
	return nil
}

// SessionCounts returns the per-type counts for one session.
func (s *Store) SessionCounts(sessionID int64) (map[string]uint64, error) {
	rows, err := s.db.Query(
		`SELECT hid_type, count FROM event_counts WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var hidType string
		var count int64
		if err := rows.Scan(&hidType, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[hidType] = uint64(count)
	}
	return counts, rows.Err()
}

// RecentSessions returns the most recent sessions, newest first, with
// their counts attached.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, started_ns, ended_ns, COALESCE(hostname, '')
		FROM sessions ORDER BY started_ns DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.StartedNs, &sess.EndedNs, &sess.Hostname); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		counts, err := s.SessionCounts(sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Counts = counts
	}
	return sessions, nil
}

// TotalEvents returns the all-time event count per device type.
func (s *Store) TotalEvents() (map[string]uint64, error) {
	rows, err := s.db.Query(
		`SELECT hid_type, SUM(count) FROM event_counts GROUP BY hid_type`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]uint64)
	for rows.Next() {
		var hidType string
		var total int64
		if err := rows.Scan(&hidType, &total); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[hidType] = uint64(total)
	}
	return totals, rows.Err()
}
