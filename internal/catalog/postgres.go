package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres reads the menu from a shared catalog database. The core only
// needs GetItem; catalog CRUD belongs to the admin application that owns
// the schema.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) GetItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	const q = `
		SELECT id, name, category, price, print_destination, available
		FROM menu_items
		WHERE id = $1`

	var (
		it    MenuItem
		price pgtype.Numeric
	)
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&it.ID, &it.Name, &it.Category, &price, &it.PrintDestination, &it.Available,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	it.Price = numericToDecimal(price)
	return it, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
