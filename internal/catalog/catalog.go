// Package catalog is the read-only menu collaborator. The order core only
// ever looks items up by id at the moment a line is added; it never holds a
// live reference, so catalog edits cannot reach into open orders.
package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("menu item not found")

type MenuItem struct {
	ID               uuid.UUID
	Name             string
	Category         string
	Price            decimal.Decimal
	PrintDestination string
	Available        bool
}

// Catalog looks up menu items by id.
type Catalog interface {
	GetItem(ctx context.Context, id uuid.UUID) (MenuItem, error)
}

// Memory is an in-process catalog, used as the default fixture and in tests.
type Memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]MenuItem
}

func NewMemory(items ...MenuItem) *Memory {
	m := &Memory{items: make(map[uuid.UUID]MenuItem, len(items))}
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		m.items[it.ID] = it
	}
	return m
}

func (m *Memory) GetItem(_ context.Context, id uuid.UUID) (MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return MenuItem{}, ErrNotFound
	}
	return it, nil
}

// Put adds or replaces an item.
func (m *Memory) Put(it MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
}

// List returns all items, for startup logging and fixtures.
func (m *Memory) List() []MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MenuItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	return out
}
