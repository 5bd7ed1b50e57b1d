package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInitStartsEmptyWithoutSnapshot(t *testing.T) {
	store, err := NewStore(NewMemorySnapshots(), "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	assert.True(t, store.State().IsEmpty())
}

func TestStoreRoundTripsThroughSnapshots(t *testing.T) {
	snapshots := NewMemorySnapshots()
	product := newProduct(t, "9.90", 5, uuid.New())

	store, err := NewStore(snapshots, "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	outcome, err := store.AddItem(context.Background(), product)
	require.NoError(t, err)
	require.Equal(t, OutcomeOK, outcome)

	// A fresh store over the same backend sees the committed cart.
	reloaded, err := NewStore(snapshots, "session-1")
	require.NoError(t, err)
	require.NoError(t, reloaded.Init(context.Background()))

	state := reloaded.State()
	require.Len(t, state.Lines, 1)
	assert.Equal(t, product.ProductID, state.Lines[0].ProductID)
	assert.Equal(t, 1, state.TotalItemCount)
}

func TestStoreDiscardsUnknownSchemaVersion(t *testing.T) {
	snapshots := NewMemorySnapshots()
	raw, err := json.Marshal(map[string]any{
		"schema_version": SnapshotSchemaVersion + 1,
		"state":          map[string]any{"lines": []any{}},
	})
	require.NoError(t, err)
	snapshots.items["session-1"] = raw

	store, err := NewStore(snapshots, "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	assert.True(t, store.State().IsEmpty())
}

func TestStoreNotifiesSubscribersAfterCommit(t *testing.T) {
	store, err := NewStore(NewMemorySnapshots(), "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	var seen []int
	unsubscribe := store.Subscribe(func(s State) {
		seen = append(seen, s.TotalItemCount)
	})

	product := newProduct(t, "2.00", 5, uuid.New())
	_, err = store.AddItem(context.Background(), product)
	require.NoError(t, err)
	_, err = store.AddItem(context.Background(), product)
	require.NoError(t, err)

	unsubscribe()
	_, err = store.AddItem(context.Background(), product)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStoreTeardownDropsSubscribersKeepsSnapshot(t *testing.T) {
	snapshots := NewMemorySnapshots()
	store, err := NewStore(snapshots, "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	notified := false
	store.Subscribe(func(State) { notified = true })
	store.Teardown()

	product := newProduct(t, "2.00", 5, uuid.New())
	_, err = store.AddItem(context.Background(), product)
	require.NoError(t, err)
	assert.False(t, notified)

	snapshot, err := snapshots.Load(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.State.Lines, 1)
}

func TestStoreRejectedOutcomeDoesNotPersist(t *testing.T) {
	snapshots := NewMemorySnapshots()
	store, err := NewStore(snapshots, "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	first := newProduct(t, "2.00", 5, uuid.New())
	_, err = store.AddItem(context.Background(), first)
	require.NoError(t, err)

	other := newProduct(t, "3.00", 5, uuid.New())
	outcome, err := store.AddItem(context.Background(), other)
	require.NoError(t, err)
	require.Equal(t, OutcomeSupplierConflict, outcome)

	snapshot, err := snapshots.Load(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Len(t, snapshot.State.Lines, 1)
	assert.Equal(t, first.ProductID, snapshot.State.Lines[0].ProductID)
}
