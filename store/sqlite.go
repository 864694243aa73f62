package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/prophunter/engine"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS engine_state (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated DATETIME NOT NULL
);`

// SQLite keeps one state row per key.
type SQLite struct {
	db  *sql.DB
	key string
}

func NewSQLite(path, key string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite store open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store schema: %w", err)
	}
	return &SQLite{db: db, key: key}, nil
}

func (s *SQLite) Load(ctx context.Context) (engine.State, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM engine_state WHERE key = ?`, s.key).Scan(&body)
	if err == sql.ErrNoRows {
		return engine.State{}, fmt.Errorf("%s: %w", s.key, ErrNotFound)
	}
	if err != nil {
		return engine.State{}, err
	}
	return decode([]byte(body))
}

func (s *SQLite) Save(ctx context.Context, st engine.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engine_state (key, body, updated) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated = excluded.updated`,
		s.key, string(data), time.Now().UTC())
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }
