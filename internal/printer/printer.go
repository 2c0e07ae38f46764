// Package printer defines the boundary to the ticket/receipt printing
// service. The core builds request descriptors; formatting (thermal escape
// codes, fiscal protocol) is entirely the printing service's concern.
package printer

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TicketLine is one flushed pending line on a kitchen/bar ticket.
type TicketLine struct {
	Name     string
	Quantity int32
	Notes    string
}

// Ticket carries the newly sent lines for a single print destination.
type Ticket struct {
	OrderID     uuid.UUID
	DisplayName string
	Destination string
	Lines       []TicketLine
}

type ReceiptLine struct {
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// ReceiptRequest describes the receipt to produce when an order closes.
type ReceiptRequest struct {
	OrderID     uuid.UUID
	DisplayName string
	Items       []ReceiptLine
	TotalAmount decimal.Decimal
	ReceiptKind string
}

// Service is the printing collaborator.
type Service interface {
	PrintTickets(ctx context.Context, tickets []Ticket) error
	PrintReceipt(ctx context.Context, req ReceiptRequest) error
}

// Log writes print requests to the application log. It stands in for the
// real printing service in development and tests.
type Log struct {
	log *logrus.Logger
}

func NewLog(log *logrus.Logger) *Log {
	return &Log{log: log}
}

func (p *Log) PrintTickets(_ context.Context, tickets []Ticket) error {
	for _, t := range tickets {
		p.log.WithFields(logrus.Fields{
			"order_id":    t.OrderID,
			"destination": t.Destination,
			"lines":       len(t.Lines),
		}).Infof("ticket for %s", t.DisplayName)
	}
	return nil
}

func (p *Log) PrintReceipt(_ context.Context, req ReceiptRequest) error {
	p.log.WithFields(logrus.Fields{
		"order_id":     req.OrderID,
		"receipt_kind": req.ReceiptKind,
		"total_amount": req.TotalAmount.StringFixed(2),
	}).Infof("receipt for %s", req.DisplayName)
	return nil
}
