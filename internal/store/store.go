// Package store implements the durable session journal for Farrier.
//
// The hook registry, composer, and trackers are memory-resident; the
// journal is the host-side durable record they are rebuilt from on
// restart. It records sessions, blocking-hook completions, and tool
// calls in SQLite (pure-Go driver, WAL mode).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeLayout formats journal timestamps; SQLite stores them as text.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// SessionRecord is one row in the sessions table.
type SessionRecord struct {
	ID        string  `json:"id"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
}

// CompletionRecord is a persisted blocking-hook completion.
type CompletionRecord struct {
	SessionID   string `json:"session_id"`
	HookID      string `json:"hook_id"`
	CompletedAt string `json:"completed_at"`
	Data        string `json:"data,omitempty"`
}

// ToolCallRecord is one journaled tool invocation.
type ToolCallRecord struct {
	SessionID string `json:"session_id"`
	Tool      string `json:"tool"`
	RequestID string `json:"request_id,omitempty"`
	CalledAt  string `json:"called_at"`
}

// Store wraps the SQLite journal.
type Store struct {
	db *sql.DB
}

// Open creates the journal database at path, creating parent directories
// and running migrations as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at   TEXT
		);

		CREATE TABLE IF NOT EXISTS hook_completions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL,
			hook_id      TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			data         TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_completions_unique
			ON hook_completions(session_id, hook_id);

		CREATE TABLE IF NOT EXISTS tool_calls (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			tool       TEXT NOT NULL,
			request_id TEXT,
			called_at  TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_calls_session ON tool_calls(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateSession records a new session.
func (s *Store) CreateSession(id string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: create session %q: %w", id, err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(id string, endedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		endedAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("store: end session %q: %w", id, err)
	}
	return nil
}

// OpenSession returns the most recent session without an end timestamp,
// if any. Used on restart to resume a session that did not shut down
// cleanly.
func (s *Store) OpenSession() (*SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, ended_at FROM sessions
		 WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`,
	)
	var rec SessionRecord
	if err := row.Scan(&rec.ID, &rec.StartedAt, &rec.EndedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open session lookup: %w", err)
	}
	return &rec, nil
}

// RecordCompletion journals a blocking-hook completion. Re-completing
// the same hook in a session replaces the earlier record, matching the
// tracker's idempotent semantics.
func (s *Store) RecordCompletion(sessionID, hookID string, data map[string]any, completedAt time.Time) error {
	var encoded string
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("store: encode completion data for %q: %w", hookID, err)
		}
		encoded = string(raw)
	}
	_, err := s.db.Exec(
		`INSERT INTO hook_completions (session_id, hook_id, completed_at, data)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, hook_id)
		 DO UPDATE SET completed_at = excluded.completed_at, data = excluded.data`,
		sessionID, hookID, completedAt.UTC().Format(timeLayout), encoded,
	)
	if err != nil {
		return fmt.Errorf("store: record completion %q: %w", hookID, err)
	}
	return nil
}

// Completions returns all completion records for a session.
func (s *Store) Completions(sessionID string) ([]CompletionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, hook_id, completed_at, COALESCE(data, '')
		 FROM hook_completions WHERE session_id = ? ORDER BY completed_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list completions: %w", err)
	}
	defer rows.Close()

	var out []CompletionRecord
	for rows.Next() {
		var rec CompletionRecord
		if err := rows.Scan(&rec.SessionID, &rec.HookID, &rec.CompletedAt, &rec.Data); err != nil {
			return nil, fmt.Errorf("store: scan completion: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordToolCall journals one tool invocation.
func (s *Store) RecordToolCall(sessionID, tool, requestID string, calledAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (session_id, tool, request_id, called_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, tool, requestID, calledAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: record tool call %q: %w", tool, err)
	}
	return nil
}

// ToolCalls returns the journaled calls for a session in call order.
func (s *Store) ToolCalls(sessionID string) ([]ToolCallRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, tool, COALESCE(request_id, ''), called_at
		 FROM tool_calls WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list tool calls: %w", err)
	}
	defer rows.Close()

	var out []ToolCallRecord
	for rows.Next() {
		var rec ToolCallRecord
		if err := rows.Scan(&rec.SessionID, &rec.Tool, &rec.RequestID, &rec.CalledAt); err != nil {
			return nil, fmt.Errorf("store: scan tool call: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
