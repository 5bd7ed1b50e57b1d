package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/harvestly/harvestly-backend/pkg/redis"
)

// SnapshotSchemaVersion is bumped whenever the persisted cart shape changes.
// Loaders discard snapshots carrying an unknown version instead of failing
// the session.
const SnapshotSchemaVersion = 1

// Snapshot is the durable serialized form of a cart.
type Snapshot struct {
	SchemaVersion int   `json:"schema_version"`
	State         State `json:"state"`
}

// SnapshotStore persists one cart snapshot per session under a fixed key.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snapshot Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSnapshots keeps cart snapshots in redis with a rolling TTL.
type RedisSnapshots struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisSnapshots builds the redis-backed snapshot store.
func NewRedisSnapshots(client *pkgredis.Client, ttl time.Duration) (*RedisSnapshots, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSnapshots{client: client, ttl: ttl}, nil
}

func (r *RedisSnapshots) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	raw, ok, err := r.client.GetOrNil(ctx, r.client.CartKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, nil
	}
	if snapshot.SchemaVersion != SnapshotSchemaVersion {
		return nil, nil
	}
	return &snapshot, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, sessionID string, snapshot Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.client.CartKey(sessionID), string(raw), r.ttl); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (r *RedisSnapshots) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.client.CartKey(sessionID))
}

// MemorySnapshots is an in-process SnapshotStore used by tests.
type MemorySnapshots struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemorySnapshots builds an empty in-memory snapshot store.
func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{items: map[string][]byte{}}
}

func (m *MemorySnapshots) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[sessionID]
	if !ok {
		return nil, nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil
	}
	if snapshot.SchemaVersion != SnapshotSchemaVersion {
		return nil, nil
	}
	return &snapshot, nil
}

func (m *MemorySnapshots) Save(_ context.Context, sessionID string, snapshot Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sessionID] = raw
	return nil
}

func (m *MemorySnapshots) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}
