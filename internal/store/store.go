// Package store persists GameState snapshots in a durable key-value shape:
// one row per player key, a JSON state blob and a schema version. The engine
// never sees the storage technology; it hands plain state in and out.
package store

import (
	"context"

	"nivesh/internal/engine"
)

// CurrentSchemaVersion tags every save. Bump it when the persisted layout
// changes and teach Migrate how to upgrade the old shape.
const CurrentSchemaVersion = 2

type SavedGame struct {
	SchemaVersion int              `json:"schema_version"`
	State         engine.GameState `json:"state"`
}

// Store is the durable save-slot contract. Load returns (nil, nil) when the
// key has never been saved.
type Store interface {
	Load(ctx context.Context, key string) (*SavedGame, error)
	Save(ctx context.Context, key string, state engine.GameState) error
	Close() error
}
