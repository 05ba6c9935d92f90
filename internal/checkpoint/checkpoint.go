// Package checkpoint persists workflow snapshots between phase
// transitions. Stores are best effort: the engine logs save failures
// and keeps going, so a dead store never takes a run down with it.
package checkpoint

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Snapshot is one saved point in a run. State carries the JSON-encoded
// workflow record; the store never looks inside it.
type Snapshot struct {
	RunID   string    `json:"run_id"`
	Phase   string    `json:"phase"`
	Steps   int       `json:"steps"`
	State   []byte    `json:"state"`
	TakenAt time.Time `json:"taken_at"`
}

type Store interface {
	// Save overwrites the snapshot for the run. Later saves win.
	Save(ctx context.Context, snap Snapshot) error
	// Load returns the most recent snapshot for the run, or an error
	// if none exists.
	Load(ctx context.Context, runID string) (*Snapshot, error)
	Close() error
}

// Noop discards snapshots. It is the default store.
type Noop struct{}

func (Noop) Save(context.Context, Snapshot) error { return nil }

func (Noop) Load(_ context.Context, runID string) (*Snapshot, error) {
	return nil, fmt.Errorf("checkpoint %s: not found", runID)
}

func (Noop) Close() error { return nil }

// Memory keeps the latest snapshot per run in a map. Useful for tests
// and single-process runs that want resume without external state.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]Snapshot)}
}

func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.RunID] = snap
	return nil
}

func (m *Memory) Load(_ context.Context, runID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[runID]
	if !ok {
		return nil, fmt.Errorf("checkpoint %s: not found", runID)
	}
	return &snap, nil
}

func (m *Memory) Close() error { return nil }
