package order

import (
	"errors"
	"fmt"

	"github.com/vardar-pos/api/internal/enum"
)

// Slot numbering: physical tables occupy 1-999, takeout tickets 1000-9999.
const (
	MinDineIn  = 1
	MaxDineIn  = 999
	MinTakeout = 1000
	MaxTakeout = 9999
)

var ErrSlotInvalid = errors.New("invalid slot number")

// Slot addresses exactly one active order: either a dine-in table or a
// takeout ticket. The kind is decided once, at the boundary, from the raw
// number; nothing downstream re-derives it from ranges.
type Slot struct {
	Kind   string
	Number int
}

func DineIn(n int) Slot {
	return Slot{Kind: enum.SlotKindDineIn, Number: n}
}

func Takeout(n int) Slot {
	return Slot{Kind: enum.SlotKindTakeout, Number: n}
}

// ResolveSlot maps a raw slot identifier to its typed form.
func ResolveSlot(raw int) (Slot, error) {
	switch {
	case raw >= MinDineIn && raw <= MaxDineIn:
		return DineIn(raw), nil
	case raw >= MinTakeout && raw <= MaxTakeout:
		return Takeout(raw), nil
	}
	return Slot{}, fmt.Errorf("%w: %d", ErrSlotInvalid, raw)
}

func (s Slot) IsTakeout() bool {
	return s.Kind == enum.SlotKindTakeout
}

// DisplayName is the label staff see on the floor plan and on tickets.
// Takeout tickets are numbered from 1 regardless of the underlying slot.
func (s Slot) DisplayName() string {
	if s.IsTakeout() {
		return fmt.Sprintf("Takeout #%d", s.Number-MinTakeout+1)
	}
	return fmt.Sprintf("Table %d", s.Number)
}
