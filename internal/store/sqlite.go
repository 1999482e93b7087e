package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nivesh/internal/engine"
)

// SQLite backs single-player local saves without a database server. The pure
// Go driver keeps the binary self-contained.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve sqlite path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		path = "file:" + abs
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS game_saves (
			player_key     TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			state          TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure game_saves: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, key string) (*SavedGame, error) {
	var version int
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT schema_version, state
		FROM game_saves
		WHERE player_key = ?
	`, key).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", key, err)
	}
	var state engine.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode save %q: %w", key, err)
	}
	return &SavedGame{SchemaVersion: version, State: state}, nil
}

func (s *SQLite) Save(ctx context.Context, key string, state engine.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode save %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_saves (player_key, schema_version, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_key) DO UPDATE
		SET schema_version = excluded.schema_version,
		    state = excluded.state,
		    updated_at = excluded.updated_at
	`, key, CurrentSchemaVersion, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
