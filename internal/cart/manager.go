package cart

import (
	"context"
	"fmt"
)

// Manager hands out initialized per-session stores over a shared snapshot
// backend.
type Manager struct {
	persister SnapshotStore
}

// NewManager builds a manager over the provided snapshot store.
func NewManager(persister SnapshotStore) (*Manager, error) {
	if persister == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	return &Manager{persister: persister}, nil
}

// Store returns a store for the session with its snapshot loaded.
func (m *Manager) Store(ctx context.Context, sessionID string) (*Store, error) {
	store, err := NewStore(m.persister, sessionID)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
