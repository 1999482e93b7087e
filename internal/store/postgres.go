package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nivesh/internal/engine"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_saves (
			player_key     TEXT PRIMARY KEY,
			schema_version INT NOT NULL,
			state          JSONB NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure game_saves: %w", err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, key string) (*SavedGame, error) {
	var version int
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT schema_version, state
		FROM game_saves
		WHERE player_key = $1
	`, key).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", key, err)
	}
	var state engine.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode save %q: %w", key, err)
	}
	return &SavedGame{SchemaVersion: version, State: state}, nil
}

func (s *Postgres) Save(ctx context.Context, key string, state engine.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode save %q: %w", key, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_saves (player_key, schema_version, state, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (player_key) DO UPDATE
		SET schema_version = $2, state = $3, updated_at = now()
	`, key, CurrentSchemaVersion, raw)
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
