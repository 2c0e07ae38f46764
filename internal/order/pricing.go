package order

import "github.com/shopspring/decimal"

// Totals are recomputed in full after every mutation rather than maintained
// incrementally, so a rejected mutation can never leave a stale amount.

// LineTotal is quantity × snapshotted unit price. Pure.
func LineTotal(it *Item) decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity))
}

// Total sums line totals. Pure.
func Total(items []*Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

// Recalculate refreshes the order's derived total from its current lines.
func (o *Order) Recalculate() {
	o.TotalAmount = Total(o.Items)
}
