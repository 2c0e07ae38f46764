package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vardar-pos/api/internal/enum"
	"github.com/vardar-pos/api/internal/order"
)

func newDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	s := New()
	slot := order.DineIn(5)

	first, created := s.GetOrCreate(slot)
	if !created {
		t.Fatal("first call should create")
	}
	if first.Status != enum.OrderStatusOpen {
		t.Fatalf("new order status = %s, want OPEN", first.Status)
	}

	second, created := s.GetOrCreate(slot)
	if created {
		t.Fatal("second call should not create")
	}
	if second.ID != first.ID {
		t.Fatalf("same slot returned different orders: %s vs %s", first.ID, second.ID)
	}
}

func TestGetOrCreate_SnapshotIsolated(t *testing.T) {
	s := New()
	snap, _ := s.GetOrCreate(order.DineIn(1))

	snap.Status = enum.OrderStatusClosed
	snap.Items = append(snap.Items, &order.Item{ID: uuid.New()})

	fresh, err := s.Get(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != enum.OrderStatusOpen || len(fresh.Items) != 0 {
		t.Fatal("mutating a snapshot reached the stored order")
	}
}

func TestCreateTakeout_MonotoneNumbers(t *testing.T) {
	s := New()

	first, err := s.CreateTakeout()
	if err != nil {
		t.Fatal(err)
	}
	if first.Slot.Number != order.MinTakeout {
		t.Fatalf("first takeout number = %d, want %d", first.Slot.Number, order.MinTakeout)
	}

	second, err := s.CreateTakeout()
	if err != nil {
		t.Fatal(err)
	}
	if second.Slot.Number != order.MinTakeout+1 {
		t.Fatalf("second takeout number = %d, want %d", second.Slot.Number, order.MinTakeout+1)
	}

	// Closing the first order must not free its number for reuse.
	if _, err := s.Close(first.ID, func(o *order.Order) error { return nil }); err != nil {
		t.Fatal(err)
	}
	third, err := s.CreateTakeout()
	if err != nil {
		t.Fatal(err)
	}
	if third.Slot.Number != order.MinTakeout+2 {
		t.Fatalf("takeout number reused: got %d", third.Slot.Number)
	}
}

func TestCreateTakeout_SkipsClientBoundSlots(t *testing.T) {
	s := New()

	// A terminal binds a takeout slot directly by number.
	s.GetOrCreate(order.Takeout(1005))

	o, err := s.CreateTakeout()
	if err != nil {
		t.Fatal(err)
	}
	if o.Slot.Number != 1006 {
		t.Fatalf("minted number = %d, want 1006", o.Slot.Number)
	}
}

func TestCreateTakeout_Concurrent(t *testing.T) {
	s := New()
	const n = 50

	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := s.CreateTakeout()
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- o.Slot.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for num := range numbers {
		if seen[num] {
			t.Fatalf("takeout number %d issued twice", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct numbers, want %d", len(seen), n)
	}
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(2))

	updated, err := s.Update(o.ID, func(o *order.Order) error {
		o.Items = append(o.Items, &order.Item{
			ID:        uuid.New(),
			Quantity:  2,
			UnitPrice: newDecimal(t, "60"),
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.TotalAmount.Equal(newDecimal(t, "120")) {
		t.Fatalf("total = %s, want 120", updated.TotalAmount)
	}
}

func TestUpdate_FailedFnLeavesOrderUntouched(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(2))
	boom := errors.New("boom")

	_, err := s.Update(o.ID, func(o *order.Order) error {
		o.Items = append(o.Items, &order.Item{ID: uuid.New(), Quantity: 1, UnitPrice: newDecimal(t, "10")})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got: %v", err)
	}

	// fn is expected to validate before mutating; the total at least must
	// not have been recomputed on failure.
	fresh, _ := s.Get(o.ID)
	if !fresh.TotalAmount.Equal(newDecimal(t, "0")) {
		t.Fatalf("total recomputed after failed update: %s", fresh.TotalAmount)
	}
}

func TestUpdate_UnknownOrder(t *testing.T) {
	s := New()
	_, err := s.Update(uuid.New(), func(o *order.Order) error { return nil })
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdate_Concurrent(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(9))
	itemID := uuid.New()
	if _, err := s.Update(o.ID, func(o *order.Order) error {
		o.Items = append(o.Items, &order.Item{ID: itemID, Quantity: 0, UnitPrice: newDecimal(t, "1")})
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(o.ID, func(o *order.Order) error {
				o.FindItem(itemID).Quantity++
				return nil
			})
		}()
	}
	wg.Wait()

	final, _ := s.Get(o.ID)
	if got := final.FindItem(itemID).Quantity; got != n {
		t.Fatalf("quantity = %d after %d concurrent increments", got, n)
	}
	if !final.TotalAmount.Equal(newDecimal(t, "100")) {
		t.Fatalf("total = %s, want 100", final.TotalAmount)
	}
}

func TestClose_FreesSlotAndID(t *testing.T) {
	s := New()
	slot := order.DineIn(4)
	o, _ := s.GetOrCreate(slot)

	final, err := s.Close(o.ID, func(o *order.Order) error {
		o.Status = enum.OrderStatusClosed
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != enum.OrderStatusClosed {
		t.Fatalf("final status = %s", final.Status)
	}

	if _, err := s.Get(o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("closed order still retrievable: %v", err)
	}
	if _, active := s.ActiveOrderFor(slot); active {
		t.Fatal("slot still occupied after close")
	}

	// The slot is immediately reusable for a fresh order.
	next, created := s.GetOrCreate(slot)
	if !created || next.ID == o.ID {
		t.Fatal("slot did not start a fresh order after close")
	}
}

func TestClose_FnErrorKeepsOrderActive(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(4))
	boom := errors.New("not ready")

	if _, err := s.Close(o.ID, func(o *order.Order) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got: %v", err)
	}
	if _, err := s.Get(o.ID); err != nil {
		t.Fatalf("order dropped despite failed close: %v", err)
	}
}

func TestMove(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(3))

	moved, err := s.Move(o.ID, order.DineIn(8))
	if err != nil {
		t.Fatal(err)
	}
	if moved.Slot != order.DineIn(8) {
		t.Fatalf("slot after move = %+v", moved.Slot)
	}
	if moved.ID != o.ID || moved.Status != o.Status {
		t.Fatal("move changed order identity or status")
	}

	if _, active := s.ActiveOrderFor(order.DineIn(3)); active {
		t.Fatal("old slot still occupied")
	}
	got, active := s.ActiveOrderFor(order.DineIn(8))
	if !active || got.ID != o.ID {
		t.Fatal("new slot does not resolve to the moved order")
	}
}

func TestMove_TargetOccupied(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(3))
	s.GetOrCreate(order.Takeout(1001))

	if _, err := s.Move(o.ID, order.Takeout(1001)); !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("expected ErrSlotOccupied, got: %v", err)
	}

	// The failed move must leave the original binding intact.
	got, active := s.ActiveOrderFor(order.DineIn(3))
	if !active || got.ID != o.ID {
		t.Fatal("failed move disturbed the original slot binding")
	}
}

func TestMove_SameSlotIsNoOp(t *testing.T) {
	s := New()
	o, _ := s.GetOrCreate(order.DineIn(3))

	moved, err := s.Move(o.ID, order.DineIn(3))
	if err != nil {
		t.Fatalf("move onto own slot failed: %v", err)
	}
	if moved.Slot != order.DineIn(3) {
		t.Fatalf("slot = %+v", moved.Slot)
	}
}

func TestList_OldestFirst(t *testing.T) {
	s := New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	a, _ := s.GetOrCreate(order.DineIn(1))
	b, _ := s.GetOrCreate(order.DineIn(2))
	c, _ := s.GetOrCreate(order.DineIn(3))

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("list length = %d", len(got))
	}
	want := []uuid.UUID{a.ID, b.ID, c.ID}
	for i, o := range got {
		if o.ID != want[i] {
			t.Fatalf("list[%d] = %s, want %s", i, o.ID, want[i])
		}
	}
}
