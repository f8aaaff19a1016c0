// Package history keeps an audit log of committed configuration mutations.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"modelhostd/pkg/types"
)

// Operation names recorded in the log.
const (
	OpAssign        = "assign"
	OpAdapterAdd    = "lora_add"
	OpAdapterRemove = "lora_remove"
)

const (
	defaultLimit    = 50
	connMaxLifetime = 5 * time.Minute
)

// Store is a sqlite-backed history log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the sqlite database at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	if inMemory(path) {
		// The database lives only as long as its connection.
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func inMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS mutations (
  id TEXT PRIMARY KEY,
  op TEXT NOT NULL,
  model TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  at_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mutations_at ON mutations(at_unix);
`)
	return err
}

// Record appends one entry and returns its id.
func (s *Store) Record(ctx context.Context, op, model, detail string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mutations(id, op, model, detail, at_unix) VALUES(?, ?, ?, ?, ?);`,
		id, op, model, detail, s.now().Unix())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, op, model, detail, at_unix FROM mutations ORDER BY at_unix DESC, rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.HistoryEntry, 0, limit)
	for rows.Next() {
		var e types.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Op, &e.Model, &e.Detail, &e.AtUnix); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
