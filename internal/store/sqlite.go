// Package store persists assistant data in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
)

// ErrNotFound is returned when a row does not exist for the user.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore holds every user's tasks, meetings, messages, calls and
// meeting transcripts. Rows are always scoped by user.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority    TEXT NOT NULL DEFAULT 'medium',
		due_date    TEXT,
		completed   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);

	CREATE TABLE IF NOT EXISTS meetings (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		attendees   TEXT NOT NULL DEFAULT '[]',
		status      TEXT NOT NULL DEFAULT 'scheduled',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meetings_user ON meetings(user_id, start_time);

	CREATE TABLE IF NOT EXISTS messages (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		sender      TEXT NOT NULL,
		content     TEXT NOT NULL,
		read        INTEGER NOT NULL DEFAULT 0,
		received_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, received_at DESC);

	CREATE TABLE IF NOT EXISTS calls (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		contact          TEXT NOT NULL,
		number           TEXT NOT NULL DEFAULT '',
		missed           INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		called_at        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calls_user ON calls(user_id, called_at DESC);

	CREATE TABLE IF NOT EXISTS meeting_records (
		user_id    TEXT NOT NULL,
		meeting_id TEXT NOT NULL,
		transcript TEXT NOT NULL,
		processed  TEXT NOT NULL,
		saved_at   TEXT NOT NULL,
		PRIMARY KEY (user_id, meeting_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ForUser returns a gateway scoped to userID.
func (s *SQLiteStore) ForUser(userID string) assistant.Gateway {
	return s.User(userID)
}

// User returns the concrete per-user view.
func (s *SQLiteStore) User(userID string) *UserStore {
	return &UserStore{store: s, userID: userID}
}

// UserStore is one user's slice of the store.
type UserStore struct {
	store  *SQLiteStore
	userID string
}

var _ assistant.Gateway = (*UserStore)(nil)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type scanner interface {
	Scan(dest ...any) error
}
