// Package store persists engine.State between live steps. Every adapter
// satisfies engine.Repository; Load on an empty store returns an error
// wrapping ErrNotFound so callers start from a fresh state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/prophunter/engine"
)

var ErrNotFound = errors.New("state not found")

// Repository is an engine.Repository that holds resources.
type Repository interface {
	engine.Repository
	Close() error
}

// Options select and configure an adapter.
type Options struct {
	Type string // memory, file, sqlite, redis
	Path string // file and sqlite

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Key namespaces the state, e.g. per symbol.
	Key string
}

// Open builds the adapter named by o.Type.
func Open(ctx context.Context, o Options) (Repository, error) {
	key := o.Key
	if key == "" {
		key = "prophunter:state"
	}
	switch o.Type {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(o.Path)
	case "sqlite":
		return NewSQLite(o.Path, key)
	case "redis":
		return NewRedis(ctx, RedisConfig{Addr: o.RedisAddr, Password: o.RedisPassword, DB: o.RedisDB, Key: key})
	}
	return nil, fmt.Errorf("unknown store type %q", o.Type)
}

// LoadOrNew returns the saved state, or a fresh one holding balance when
// nothing was saved yet.
func LoadOrNew(ctx context.Context, r engine.Repository, balance float64) (engine.State, bool, error) {
	s, err := r.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return engine.NewState(balance), false, nil
	}
	if err != nil {
		return engine.State{}, false, err
	}
	return s, true, nil
}

func decode(data []byte) (engine.State, error) {
	if len(data) == 0 {
		return engine.State{}, ErrNotFound
	}
	var s engine.State
	if err := json.Unmarshal(data, &s); err != nil {
		return engine.State{}, fmt.Errorf("decode state: %w", err)
	}
	return s.Normalize(), nil
}

func encode(s engine.State) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}
