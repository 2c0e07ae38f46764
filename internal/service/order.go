package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vardar-pos/api/internal/auth"
	"github.com/vardar-pos/api/internal/catalog"
	"github.com/vardar-pos/api/internal/enum"
	"github.com/vardar-pos/api/internal/order"
	"github.com/vardar-pos/api/internal/printer"
	"github.com/vardar-pos/api/internal/store"
)

// Errors returned by the order service. ErrBelowSentQuantity and
// ErrRequiresAdmin carry the recovery hint: the caller may retry the
// operation through the admin override path.
var (
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrItemNotFound        = errors.New("item not found in order")
	ErrBelowSentQuantity   = errors.New("quantity cannot drop below the sent quantity")
	ErrRequiresAdmin       = errors.New("item has sent quantity, removal requires admin")
	ErrNothingToSend       = errors.New("order has no pending items")
	ErrNotSent             = errors.New("order has not been sent")
	ErrInvalidReceiptKind  = errors.New("invalid receipt kind")
)

// RequiresAdmin reports whether err is recoverable via the admin override.
func RequiresAdmin(err error) bool {
	return errors.Is(err, ErrBelowSentQuantity) || errors.Is(err, ErrRequiresAdmin)
}

// Catalog is the menu lookup collaborator. Satisfied by *catalog.Memory and
// *catalog.Postgres; narrow interface for testability.
type Catalog interface {
	GetItem(ctx context.Context, id uuid.UUID) (catalog.MenuItem, error)
}

// FloorPlan supplies the set of valid dine-in table numbers.
type FloorPlan interface {
	TableExists(ctx context.Context, tableNumber int) (bool, error)
}

// OverrideVerifier checks admin override tokens. Satisfied by *auth.Gate.
type OverrideVerifier interface {
	Verify(token string) error
}

// Printer receives ticket and receipt requests. Satisfied by printer.Service
// implementations.
type Printer interface {
	PrintTickets(ctx context.Context, tickets []printer.Ticket) error
	PrintReceipt(ctx context.Context, req printer.ReceiptRequest) error
}

// OrderService owns the order lifecycle: it is the only component that
// mutates quantities or advances status, so the sentQuantity ≤ quantity
// invariant has a single enforcement point.
type OrderService struct {
	store   *store.Store
	catalog Catalog
	plan    FloorPlan
	gate    OverrideVerifier
	printer Printer
	log     *logrus.Logger
}

func NewOrderService(st *store.Store, cat Catalog, plan FloorPlan, gate OverrideVerifier, prt Printer, log *logrus.Logger) *OrderService {
	return &OrderService{store: st, catalog: cat, plan: plan, gate: gate, printer: prt, log: log}
}

// GetOrCreate resolves a raw slot identifier and returns the slot's active
// order, creating a fresh OPEN one if the slot is free. Dine-in numbers must
// exist on the floor plan.
func (s *OrderService) GetOrCreate(ctx context.Context, rawSlot int) (*order.Order, error) {
	slot, err := order.ResolveSlot(rawSlot)
	if err != nil {
		return nil, err
	}
	if !slot.IsTakeout() {
		exists, err := s.plan.TableExists(ctx, slot.Number)
		if err != nil {
			return nil, fmt.Errorf("floor plan lookup: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: table %d is not on the floor plan", order.ErrSlotInvalid, slot.Number)
		}
	}

	o, created := s.store.GetOrCreate(slot)
	if created {
		s.log.WithFields(logrus.Fields{"order_id": o.ID, "slot": slot.Number}).Info("order created")
	}
	return o, nil
}

// CreateTakeout mints the next takeout slot and opens an order on it.
func (s *OrderService) CreateTakeout(_ context.Context) (*order.Order, error) {
	o, err := s.store.CreateTakeout()
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "slot": o.Slot.Number}).Info("takeout order created")
	return o, nil
}

// Get returns a snapshot of the order with the given id.
func (s *OrderService) Get(_ context.Context, orderID uuid.UUID) (*order.Order, error) {
	return s.store.Get(orderID)
}

// ListActive returns snapshots of all active orders, oldest first.
func (s *OrderService) ListActive(_ context.Context) ([]*order.Order, error) {
	return s.store.List(), nil
}

// AddItem appends a line to the order with the menu item's price snapshotted
// at this moment. Lines with identical notes merge into an existing
// not-yet-sent line for the same menu item; anything already sent, or
// differently annotated, gets a fresh line so kitchen tickets stay honest.
func (s *OrderService) AddItem(ctx context.Context, orderID, menuItemID uuid.UUID, quantity int32, notes string) (*order.Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	mi, err := s.catalog.GetItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	if !mi.Available {
		return nil, ErrMenuItemUnavailable
	}

	return s.store.Update(orderID, func(o *order.Order) error {
		for _, it := range o.Items {
			if it.MenuItemID == menuItemID && it.Notes == notes && it.SentQuantity == 0 {
				it.Quantity += quantity
				return nil
			}
		}
		o.Items = append(o.Items, &order.Item{
			ID:               uuid.New(),
			MenuItemID:       mi.ID,
			Name:             mi.Name,
			Quantity:         quantity,
			SentQuantity:     0,
			UnitPrice:        mi.Price,
			Notes:            notes,
			PrintDestination: mi.PrintDestination,
			CreatedAt:        time.Now(),
		})
		return nil
	})
}

// SetQuantity changes a line's quantity. Increases are always legal, even on
// a SENT order; the difference becomes pending and a later Send flushes it.
// Dropping below the sent quantity (including to zero on a sent line) fails
// with ErrBelowSentQuantity. A drop to zero on an unsent line deletes it.
func (s *OrderService) SetQuantity(_ context.Context, orderID, itemID uuid.UUID, newQuantity int32) (*order.Order, error) {
	if newQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	return s.store.Update(orderID, func(o *order.Order) error {
		it := o.FindItem(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if newQuantity < it.SentQuantity {
			return fmt.Errorf("%w: sent %d, requested %d", ErrBelowSentQuantity, it.SentQuantity, newQuantity)
		}
		if newQuantity == 0 {
			o.RemoveItem(itemID)
			return nil
		}
		it.Quantity = newQuantity
		return nil
	})
}

// RemoveItem deletes a line outright. A line with any sent quantity cannot
// be removed this way; the caller must go through ForceRemove.
func (s *OrderService) RemoveItem(_ context.Context, orderID, itemID uuid.UUID) (*order.Order, error) {
	return s.store.Update(orderID, func(o *order.Order) error {
		it := o.FindItem(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if it.SentQuantity > 0 {
			return ErrRequiresAdmin
		}
		o.RemoveItem(itemID)
		return nil
	})
}

// ForceRemove is the only path allowed to reduce a quantity below its sent
// amount or delete a (partially) sent line. It requires a live override
// token from the admin gate. A partial removal clamps sentQuantity down to
// the new quantity so the invariant holds.
func (s *OrderService) ForceRemove(_ context.Context, orderID, itemID uuid.UUID, amountToRemove int32, overrideToken string) (*order.Order, error) {
	if err := s.gate.Verify(overrideToken); err != nil {
		return nil, err
	}
	if amountToRemove < 1 {
		return nil, ErrInvalidQuantity
	}

	snap, err := s.store.Update(orderID, func(o *order.Order) error {
		it := o.FindItem(itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if amountToRemove >= it.Quantity {
			o.RemoveItem(itemID)
			return nil
		}
		it.Quantity -= amountToRemove
		if it.SentQuantity > it.Quantity {
			it.SentQuantity = it.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"item_id":  itemID,
		"amount":   amountToRemove,
	}).Warn("admin override removal")
	return snap, nil
}

// Send flushes every pending quantity to the kitchen/bar and advances an
// OPEN order to SENT. Repeated sends only flush newly pending lines; with
// nothing pending the call fails, so a double-send is visible to the caller.
func (s *OrderService) Send(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var tickets []printer.Ticket

	snap, err := s.store.Update(orderID, func(o *order.Order) error {
		if o.PendingCount() == 0 {
			return ErrNothingToSend
		}

		byDest := map[string][]printer.TicketLine{}
		for _, it := range o.Items {
			pending := it.Pending()
			if pending == 0 {
				continue
			}
			byDest[it.PrintDestination] = append(byDest[it.PrintDestination], printer.TicketLine{
				Name:     it.Name,
				Quantity: pending,
				Notes:    it.Notes,
			})
			it.SentQuantity = it.Quantity
		}

		if o.Status == enum.OrderStatusOpen {
			if err := order.ValidateTransition(o.Status, enum.OrderStatusSent); err != nil {
				return err
			}
			o.Status = enum.OrderStatusSent
		}

		for dest, lines := range byDest {
			tickets = append(tickets, printer.Ticket{
				OrderID:     o.ID,
				DisplayName: o.DisplayName(),
				Destination: dest,
				Lines:       lines,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The order state is committed; a printer fault must not roll it back.
	if err := s.printer.PrintTickets(ctx, tickets); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Error("ticket print failed")
	}
	return snap, nil
}

// Close terminates a SENT order: it leaves the active set for good and the
// returned receipt request is handed to the printing service. receiptKind
// (THERMAL or FISCAL) is decided by the caller before invocation.
func (s *OrderService) Close(ctx context.Context, orderID uuid.UUID, receiptKind string) (*printer.ReceiptRequest, error) {
	if receiptKind != enum.ReceiptKindThermal && receiptKind != enum.ReceiptKindFiscal {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReceiptKind, receiptKind)
	}

	final, err := s.store.Close(orderID, func(o *order.Order) error {
		if o.Status != enum.OrderStatusSent {
			return ErrNotSent
		}
		if err := order.ValidateTransition(o.Status, enum.OrderStatusClosed); err != nil {
			return err
		}
		o.Status = enum.OrderStatusClosed
		return nil
	})
	if err != nil {
		return nil, err
	}

	req := buildReceipt(final, receiptKind)
	if err := s.printer.PrintReceipt(ctx, req); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Error("receipt print failed")
	}
	s.log.WithFields(logrus.Fields{
		"order_id":     orderID,
		"receipt_kind": receiptKind,
		"total_amount": final.TotalAmount.StringFixed(2),
	}).Info("order closed")
	return &req, nil
}

// Move re-addresses an order to a different slot, preserving status and
// items. The target must be a valid slot without an active order.
func (s *OrderService) Move(ctx context.Context, orderID uuid.UUID, rawSlot int) (*order.Order, error) {
	slot, err := order.ResolveSlot(rawSlot)
	if err != nil {
		return nil, err
	}
	if !slot.IsTakeout() {
		exists, err := s.plan.TableExists(ctx, slot.Number)
		if err != nil {
			return nil, fmt.Errorf("floor plan lookup: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: table %d is not on the floor plan", order.ErrSlotInvalid, slot.Number)
		}
	}
	return s.store.Move(orderID, slot)
}

func buildReceipt(o *order.Order, receiptKind string) printer.ReceiptRequest {
	lines := make([]printer.ReceiptLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = printer.ReceiptLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: order.LineTotal(it),
		}
	}
	return printer.ReceiptRequest{
		OrderID:     o.ID,
		DisplayName: o.DisplayName(),
		Items:       lines,
		TotalAmount: o.TotalAmount,
		ReceiptKind: receiptKind,
	}
}

var _ OverrideVerifier = (*auth.Gate)(nil)
