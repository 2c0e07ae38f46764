// Package floorplan supplies the set of valid dine-in table numbers. Table
// geometry, areas and drag-positioning live in the floor-plan application;
// the order core only asks whether a table exists.
package floorplan

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Plan interface {
	TableExists(ctx context.Context, tableNumber int) (bool, error)
}

// Memory is a fixed table set, used as the default fixture and in tests.
type Memory struct {
	tables map[int]struct{}
}

func NewMemory(tableNumbers ...int) *Memory {
	m := &Memory{tables: make(map[int]struct{}, len(tableNumbers))}
	for _, n := range tableNumbers {
		m.tables[n] = struct{}{}
	}
	return m
}

// NewMemoryRange covers tables lo through hi inclusive.
func NewMemoryRange(lo, hi int) *Memory {
	m := &Memory{tables: make(map[int]struct{}, hi-lo+1)}
	for n := lo; n <= hi; n++ {
		m.tables[n] = struct{}{}
	}
	return m
}

func (m *Memory) TableExists(_ context.Context, tableNumber int) (bool, error) {
	_, ok := m.tables[tableNumber]
	return ok, nil
}

// Postgres reads the floor plan from the shared database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) TableExists(ctx context.Context, tableNumber int) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM restaurant_tables WHERE table_number = $1 AND active)`

	var exists bool
	if err := p.pool.QueryRow(ctx, q, tableNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %d: %w", tableNumber, err)
	}
	return exists, nil
}
