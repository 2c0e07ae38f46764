package enum

// ── Order lifecycle (enforced by the service state machine) ──

const (
	OrderStatusOpen   = "OPEN"
	OrderStatusSent   = "SENT"
	OrderStatusClosed = "CLOSED"
)

// ── Slot addressing ──

const (
	SlotKindDineIn  = "DINE_IN"
	SlotKindTakeout = "TAKEOUT"
)

// ── Fulfillment routing (configurable labels) ──

const (
	PrintDestKitchen = "KITCHEN"
	PrintDestBar     = "BAR"
)

const (
	ReceiptKindThermal = "THERMAL"
	ReceiptKindFiscal  = "FISCAL"
)
