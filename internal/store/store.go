// Package store keeps a local sqlite archive of fetched sessions so
// transcripts can be replayed offline through the history reconstructor.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chainchat/internal/domain"
	chatModels "chainchat/internal/domain/models/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	context_json TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	archived_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS history_entries (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Store is the local session archive.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the archive at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("archive db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession upserts a session and replaces its archived history.
func (s *Store) SaveSession(ctx context.Context, session *chatModels.Session) error {
	contextJSON := ""
	if session.Context != nil {
		data, err := json.Marshal(session.Context)
		if err != nil {
			return fmt.Errorf("marshal session context: %w", err)
		}
		contextJSON = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, context_json, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			context_json = excluded.context_json,
			archived_at = excluded.archived_at`,
		session.ID, session.Title, contextJSON, createdAt, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("clear archived history: %w", err)
	}
	for i, entry := range session.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history_entries (session_id, seq, role, content)
			VALUES (?, ?, ?, ?)`,
			session.ID, i, entry.Role, entry.Content,
		); err != nil {
			return fmt.Errorf("save history entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadSession fetches an archived session with its history.
// Returns domain.ErrNotFound when the session was never archived.
func (s *Store) LoadSession(ctx context.Context, id string) (*chatModels.Session, error) {
	session := &chatModels.Session{ID: id}
	var contextJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT title, context_json, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.Title, &contextJSON, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if contextJSON != "" {
		var wire chatModels.WireContext
		if err := json.Unmarshal([]byte(contextJSON), &wire); err != nil {
			return nil, fmt.Errorf("parse archived context: %w", err)
		}
		session.Context = &wire
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM history_entries
		WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load archived history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var entry chatModels.HistoryEntry
		if err := rows.Scan(&entry.Role, &entry.Content); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		session.History = append(session.History, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessions returns archived session summaries, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]chatModels.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list archived sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []chatModels.SessionSummary
	for rows.Next() {
		var s chatModels.SessionSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteSession removes an archived session and its history.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history_entries WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
