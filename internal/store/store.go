// Package store is the authoritative collection of active orders. It owns
// the slot index and serializes all mutations to the same order: every
// change is a read-modify-write under that order's lock, and callers only
// ever receive deep snapshots.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vardar-pos/api/internal/enum"
	"github.com/vardar-pos/api/internal/order"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrSlotOccupied  = errors.New("slot already has an active order")
)

// entry wraps one managed order. removed is set under mu when the order
// leaves the active set, so an Update that raced a Close observes it.
type entry struct {
	mu      sync.Mutex
	removed bool
	order   *order.Order
}

// Store holds the active set. The store mutex guards the maps and the
// takeout counter (slot exclusivity is a cross-order invariant); each
// entry's mutex serializes mutations to that order. Lock order is always
// store then entry, never the reverse.
type Store struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*entry
	slots       map[order.Slot]uuid.UUID
	lastTakeout int
	now         func() time.Time
}

func New() *Store {
	return &Store{
		orders:      make(map[uuid.UUID]*entry),
		slots:       make(map[order.Slot]uuid.UUID),
		lastTakeout: order.MinTakeout - 1,
		now:         time.Now,
	}
}

// GetOrCreate returns the active order for slot, creating a fresh OPEN order
// if the slot is free. The second return reports whether a new order was
// created.
func (s *Store) GetOrCreate(slot order.Slot) (*order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.slots[slot]; ok {
		e := s.orders[id]
		e.mu.Lock()
		snap := e.order.Clone()
		e.mu.Unlock()
		return snap, false
	}
	return s.createLocked(slot), true
}

// CreateTakeout mints the next takeout slot and binds a fresh order to it
// in one step, so a number can never be issued twice within a session.
func (s *Store) CreateTakeout() (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.lastTakeout + 1
	if n > order.MaxTakeout {
		return nil, fmt.Errorf("%w: takeout slots exhausted", order.ErrSlotInvalid)
	}
	return s.createLocked(order.Takeout(n)), nil
}

func (s *Store) createLocked(slot order.Slot) *order.Order {
	now := s.now()
	o := &order.Order{
		ID:        uuid.New(),
		Slot:      slot,
		Status:    enum.OrderStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Recalculate()
	s.orders[o.ID] = &entry{order: o}
	s.slots[slot] = o.ID
	s.noteSlotLocked(slot)
	return o.Clone()
}

// noteSlotLocked advances the takeout counter past any takeout number that
// becomes bound, so a later mint cannot collide with a client-chosen slot.
func (s *Store) noteSlotLocked(slot order.Slot) {
	if slot.IsTakeout() && slot.Number > s.lastTakeout {
		s.lastTakeout = slot.Number
	}
}

// Get returns a snapshot of the order with the given id.
func (s *Store) Get(id uuid.UUID) (*order.Order, error) {
	s.mu.Lock()
	e, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrOrderNotFound
	}
	return e.order.Clone(), nil
}

// ActiveOrderFor is the slot → order lookup. The boolean is false when the
// slot is free.
func (s *Store) ActiveOrderFor(slot order.Slot) (*order.Order, bool) {
	s.mu.Lock()
	id, ok := s.slots[slot]
	var e *entry
	if ok {
		e = s.orders[id]
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, false
	}
	return e.order.Clone(), true
}

// List returns snapshots of every active order, oldest first.
func (s *Store) List() []*order.Order {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.orders))
	for _, e := range s.orders {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]*order.Order, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, e.order.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Update applies fn to the order under its lock, recomputes the total and
// returns the new snapshot. When fn fails nothing is recomputed and the
// error is returned as-is; fn must validate before it mutates.
func (s *Store) Update(id uuid.UUID, fn func(*order.Order) error) (*order.Order, error) {
	s.mu.Lock()
	e, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrOrderNotFound
	}
	if err := fn(e.order); err != nil {
		return nil, err
	}
	e.order.Recalculate()
	e.order.UpdatedAt = s.now()
	return e.order.Clone(), nil
}

// Close applies fn (which enforces the terminal transition) and, on
// success, removes the order from the active set. The returned snapshot is
// the order's final state; the id and slot are free afterwards.
func (s *Store) Close(id uuid.UUID, fn func(*order.Order) error) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrOrderNotFound
	}
	if err := fn(e.order); err != nil {
		return nil, err
	}
	e.order.UpdatedAt = s.now()
	e.removed = true
	delete(s.orders, id)
	delete(s.slots, e.order.Slot)
	return e.order.Clone(), nil
}

// Move re-addresses an order to newSlot. The whole swap happens under the
// store lock so it is atomic against a concurrent GetOrCreate on the target.
func (s *Store) Move(id uuid.UUID, newSlot order.Slot) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if occupantID, occupied := s.slots[newSlot]; occupied && occupantID != id {
		return nil, ErrSlotOccupied
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrOrderNotFound
	}
	delete(s.slots, e.order.Slot)
	s.slots[newSlot] = id
	e.order.Slot = newSlot
	e.order.UpdatedAt = s.now()
	s.noteSlotLocked(newSlot)
	return e.order.Clone(), nil
}
