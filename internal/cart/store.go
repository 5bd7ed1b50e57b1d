package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Store owns one session's cart. Every mutation runs the pure reducer,
// persists the resulting snapshot and notifies subscribers, all under a
// single lock so the single-writer guarantee holds even when HTTP handlers
// share a store instance.
type Store struct {
	mu        sync.Mutex
	sessionID string
	state     State
	persister SnapshotStore
	subs      map[int]func(State)
	nextSubID int
}

// NewStore builds a store bound to the session's persisted snapshot.
func NewStore(persister SnapshotStore, sessionID string) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	return &Store{
		sessionID: sessionID,
		state:     Empty(),
		persister: persister,
		subs:      map[int]func(State){},
	}, nil
}

// Init loads the persisted snapshot, starting empty when none exists or the
// stored schema version is unknown.
func (st *Store) Init(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	snapshot, err := st.persister.Load(ctx, st.sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if snapshot == nil {
		st.state = Empty()
		return nil
	}
	st.state = snapshot.State.clone()
	return nil
}

// State returns a copy of the current cart.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Subscribe registers a listener invoked after every committed mutation.
// The returned function unsubscribes.
func (st *Store) Subscribe(fn func(State)) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextSubID
	st.nextSubID++
	st.subs[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.subs, id)
	}
}

// Teardown drops all subscribers. The persisted snapshot stays.
func (st *Store) Teardown() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs = map[int]func(State){}
}

// AddItem runs the add reducer. Conflict and stock-limit outcomes leave the
// cart untouched and are reported to the caller, never raised as errors.
func (st *Store) AddItem(ctx context.Context, product ProductRef) (Outcome, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next, outcome := AddItem(st.state, product)
	if outcome != OutcomeOK {
		return outcome, nil
	}
	if err := st.commit(ctx, next); err != nil {
		return outcome, err
	}
	return OutcomeOK, nil
}

// RemoveItem runs the remove reducer.
func (st *Store) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.commit(ctx, RemoveItem(st.state, productID))
}

// SetQuantity runs the quantity reducer.
func (st *Store) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.commit(ctx, SetQuantity(st.state, productID, quantity))
}

// Clear resets the cart.
func (st *Store) Clear(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.commit(ctx, Clear(st.state))
}

// ApplyCoupon attaches a previewed coupon.
func (st *Store) ApplyCoupon(ctx context.Context, coupon AppliedCoupon, discount decimal.Decimal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.commit(ctx, ApplyCoupon(st.state, coupon, discount))
}

// RemoveCoupon detaches the applied coupon.
func (st *Store) RemoveCoupon(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.commit(ctx, RemoveCoupon(st.state))
}

// commit persists the next state before exposing it; a failed write keeps
// the previous state so memory and durable storage never diverge.
func (st *Store) commit(ctx context.Context, next State) error {
	if err := st.persister.Save(ctx, st.sessionID, Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		State:         next,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	st.state = next
	for _, fn := range st.subs {
		fn(next.clone())
	}
	return nil
}
