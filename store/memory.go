package store

import (
	"context"
	"sync"

	"github.com/rustyeddy/prophunter/engine"
)

// Memory keeps the state in process. Tests and backtests use it.
type Memory struct {
	mu    sync.Mutex
	state *engine.State
	saves int
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (engine.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return engine.State{}, ErrNotFound
	}
	return *m.state, nil
}

func (m *Memory) Save(_ context.Context, s engine.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &s
	m.saves++
	return nil
}

// Saves counts successful Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }
