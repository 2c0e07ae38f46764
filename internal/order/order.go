package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an active order bound to a slot. The store hands out deep copies
// only; live instances never leave the per-order critical section.
type Order struct {
	ID          uuid.UUID
	Slot        Slot
	Status      string
	Items       []*Item
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item is a single order line. UnitPrice is a pricing snapshot: it is copied
// from the catalog when the line is created and never re-read, so catalog
// price edits cannot change an open order's total. Name and PrintDestination
// are snapshotted for the same reason (ticket routing and receipts must not
// depend on later catalog edits).
type Item struct {
	ID               uuid.UUID
	MenuItemID       uuid.UUID
	Name             string
	Quantity         int32
	SentQuantity     int32
	UnitPrice        decimal.Decimal
	Notes            string
	PrintDestination string
	CreatedAt        time.Time
}

// Pending is the portion of the line not yet pushed to kitchen/bar.
func (i *Item) Pending() int32 {
	if p := i.Quantity - i.SentQuantity; p > 0 {
		return p
	}
	return 0
}

func (i *Item) clone() *Item {
	c := *i
	return &c
}

// FindItem returns the line with the given id, or nil.
func (o *Order) FindItem(itemID uuid.UUID) *Item {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// RemoveItem drops the line with the given id, preserving item order.
func (o *Order) RemoveItem(itemID uuid.UUID) {
	for idx, it := range o.Items {
		if it.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			return
		}
	}
}

// PendingCount is the total pending quantity across all lines.
func (o *Order) PendingCount() int32 {
	var total int32
	for _, it := range o.Items {
		total += it.Pending()
	}
	return total
}

func (o *Order) DisplayName() string {
	return o.Slot.DisplayName()
}

// Clone returns a deep copy safe to hand outside the store's locks.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]*Item, len(o.Items))
	for i, it := range o.Items {
		c.Items[i] = it.clone()
	}
	return &c
}
