// Package session owns the lifecycle of the in-progress order: the
// observable current order and line items, the temporary id sequence, and
// the per-customer stash used when the operator switches customers without
// confirming.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tillworks/posledger/internal/domain/order"
	"github.com/tillworks/posledger/pkg/observable"
)

// stashed is a suspended in-progress aggregate, always deep-copied on the
// way in and out so the live order can never alias it.
type stashed struct {
	order order.Order
	items []order.LineItem
}

// State holds the single authoritative in-progress order for one session.
type State struct {
	id    uuid.UUID
	order *observable.Value[order.Order]
	items *observable.Value[[]order.LineItem]

	tempID atomic.Int64

	mu    sync.Mutex
	stash map[int64]stashed
}

// NewState creates a session state with a fresh empty order dated now, owned
// by no customer and seeded with the given clerk user id.
func NewState(userID int64) *State {
	s := &State{
		id:    uuid.New(),
		stash: make(map[int64]stashed),
	}
	s.tempID.Store(order.TempIDBase)
	s.order = observable.NewValue(order.Order{
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	s.items = observable.NewValue([]order.LineItem{})
	return s
}

// ID identifies this session.
func (s *State) ID() uuid.UUID {
	return s.id
}

// Order exposes the observable in-progress order header.
func (s *State) Order() *observable.Value[order.Order] {
	return s.order
}

// Items exposes the observable in-progress line items. Every mutation
// publishes a new slice instance.
func (s *State) Items() *observable.Value[[]order.LineItem] {
	return s.items
}

// NextTempID returns the next temporary line-item id, strictly above
// order.TempIDBase and monotonically increasing for the session lifetime.
func (s *State) NextTempID() int64 {
	return s.tempID.Add(1)
}

// Stash snapshots an in-progress aggregate under customerID. The stored
// values are deep copies of o and items.
func (s *State) Stash(customerID int64, o order.Order, items []order.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stash[customerID] = stashed{
		order: o,
		items: order.CloneLineItems(items),
	}
}

// Stashed returns a deep copy of the aggregate stashed for customerID, if
// one exists.
func (s *State) Stashed(customerID int64) (order.Order, []order.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stash[customerID]
	if !ok {
		return order.Order{}, nil, false
	}
	return st.order, order.CloneLineItems(st.items), true
}

// HasStashed reports whether a suspended aggregate exists for customerID.
func (s *State) HasStashed(customerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stash[customerID]
	return ok
}

// DropStashed removes the suspended aggregate for customerID.
func (s *State) DropStashed(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stash, customerID)
}

// DropAllStashed clears the whole stash. Called after confirm so a persisted
// order cannot leak into another customer's next session.
func (s *State) DropAllStashed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.stash)
}
