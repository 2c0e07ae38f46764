package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vardar-pos/api/internal/auth"
	"github.com/vardar-pos/api/internal/order"
	"github.com/vardar-pos/api/internal/printer"
	"github.com/vardar-pos/api/internal/service"
	"github.com/vardar-pos/api/internal/store"
	"github.com/vardar-pos/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	GetOrCreate(ctx context.Context, rawSlot int) (*order.Order, error)
	CreateTakeout(ctx context.Context) (*order.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	ListActive(ctx context.Context) ([]*order.Order, error)
	AddItem(ctx context.Context, orderID, menuItemID uuid.UUID, quantity int32, notes string) (*order.Order, error)
	SetQuantity(ctx context.Context, orderID, itemID uuid.UUID, newQuantity int32) (*order.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*order.Order, error)
	ForceRemove(ctx context.Context, orderID, itemID uuid.UUID, amountToRemove int32, overrideToken string) (*order.Order, error)
	Send(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	Close(ctx context.Context, orderID uuid.UUID, receiptKind string) (*printer.ReceiptRequest, error)
	Move(ctx context.Context, orderID uuid.UUID, rawSlot int) (*order.Order, error)
}

// Broadcaster pushes events to connected terminals. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
	hub Broadcaster
	log *logrus.Logger
}

func NewOrderHandler(svc OrderServicer, hub Broadcaster, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub, log: log}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/slots/{number}/order", h.GetOrCreate)
	r.Post("/orders/takeout", h.CreateTakeout)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/items", h.AddItem)
	r.Patch("/orders/{id}/items/{itemID}", h.UpdateQuantity)
	r.Delete("/orders/{id}/items/{itemID}", h.RemoveItem)
	r.Delete("/orders/{id}/items/{itemID}/admin", h.AdminRemoveItem)
	r.Post("/orders/{id}/send", h.Send)
	r.Post("/orders/{id}/close", h.Close)
	r.Post("/orders/{id}/move", h.Move)
}

// --- Request / Response types ---

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type adminRemoveRequest struct {
	AmountToRemove int32  `json:"amount_to_remove"`
	OverrideToken  string `json:"override_token"`
}

type closeRequest struct {
	ReceiptKind string `json:"receipt_kind"`
}

type moveRequest struct {
	NewSlot int `json:"new_slot"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	Slot        int                 `json:"slot"`
	SlotKind    string              `json:"slot_kind"`
	DisplayName string              `json:"display_name"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ID               uuid.UUID `json:"id"`
	MenuItemID       uuid.UUID `json:"menu_item_id"`
	Name             string    `json:"name"`
	Quantity         int32     `json:"quantity"`
	SentQuantity     int32     `json:"sent_quantity"`
	PendingQuantity  int32     `json:"pending_quantity"`
	UnitPrice        string    `json:"unit_price"`
	LineTotal        string    `json:"line_total"`
	Notes            *string   `json:"notes"`
	PrintDestination string    `json:"print_destination"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

type receiptResponse struct {
	OrderID     uuid.UUID             `json:"order_id"`
	DisplayName string                `json:"display_name"`
	ReceiptKind string                `json:"receipt_kind"`
	TotalAmount string                `json:"total_amount"`
	Items       []receiptLineResponse `json:"items"`
}

type receiptLineResponse struct {
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type errorResponse struct {
	Error         string `json:"error"`
	RequiresAdmin bool   `json:"requires_admin,omitempty"`
}

// --- Handlers ---

// GetOrCreate handles GET /slots/{number}/order.
func (h *OrderHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid slot number"})
		return
	}

	o, err := h.svc.GetOrCreate(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CreateTakeout handles POST /orders/takeout.
func (h *OrderHandler) CreateTakeout(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.CreateTakeout(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderCreated, o)
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListActive(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := orderListResponse{Orders: make([]orderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Get(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid menu_item_id"})
		return
	}

	o, err := h.svc.AddItem(r.Context(), orderID, menuItemID, req.Quantity, req.Notes)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateQuantity handles PATCH /orders/{id}/items/{itemID}.
func (h *OrderHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.orderItemIDs(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	o, err := h.svc.SetQuantity(r.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// RemoveItem handles DELETE /orders/{id}/items/{itemID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.orderItemIDs(w, r)
	if !ok {
		return
	}

	o, err := h.svc.RemoveItem(r.Context(), orderID, itemID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// AdminRemoveItem handles DELETE /orders/{id}/items/{itemID}/admin.
func (h *OrderHandler) AdminRemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := h.orderItemIDs(w, r)
	if !ok {
		return
	}

	var req adminRemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.OverrideToken == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "override token is required"})
		return
	}

	o, err := h.svc.ForceRemove(r.Context(), orderID, itemID, req.AmountToRemove, req.OverrideToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Send handles POST /orders/{id}/send.
func (h *OrderHandler) Send(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Send(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Close handles POST /orders/{id}/close.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	receipt, err := h.svc.Close(r.Context(), orderID, req.ReceiptKind)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	payload, _ := json.Marshal(map[string]string{"order_id": orderID.String()})
	h.hub.Broadcast(ws.Event{Type: ws.EventOrderClosed, Payload: payload})
	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// Move handles POST /orders/{id}/move.
func (h *OrderHandler) Move(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	o, err := h.svc.Move(r.Context(), orderID, req.NewSlot)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcastOrder(ws.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// --- Helpers ---

func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) orderItemIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid item ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}

// writeServiceError maps known service errors to HTTP status codes per the
// failure taxonomy: validation 400, authorization 401, not-found 404,
// business-rule and conflict 409. Anything unknown is a 500.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrSlotInvalid),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrInvalidReceiptKind):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, auth.ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case service.RequiresAdmin(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), RequiresAdmin: true})

	case errors.Is(err, service.ErrNothingToSend),
		errors.Is(err, service.ErrNotSent),
		errors.Is(err, store.ErrSlotOccupied):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	default:
		h.log.WithError(err).Error("order operation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (h *OrderHandler) broadcastOrder(eventType string, o *order.Order) {
	payload, err := json.Marshal(toOrderResponse(o))
	if err != nil {
		return
	}
	h.hub.Broadcast(ws.Event{Type: eventType, Payload: payload})
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		Slot:        o.Slot.Number,
		SlotKind:    o.Slot.Kind,
		DisplayName: o.DisplayName(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       make([]orderItemResponse, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for i, it := range o.Items {
		item := orderItemResponse{
			ID:               it.ID,
			MenuItemID:       it.MenuItemID,
			Name:             it.Name,
			Quantity:         it.Quantity,
			SentQuantity:     it.SentQuantity,
			PendingQuantity:  it.Pending(),
			UnitPrice:        it.UnitPrice.StringFixed(2),
			LineTotal:        order.LineTotal(it).StringFixed(2),
			PrintDestination: it.PrintDestination,
		}
		if it.Notes != "" {
			notes := it.Notes
			item.Notes = &notes
		}
		resp.Items[i] = item
	}
	return resp
}

func toReceiptResponse(req *printer.ReceiptRequest) receiptResponse {
	resp := receiptResponse{
		OrderID:     req.OrderID,
		DisplayName: req.DisplayName,
		ReceiptKind: req.ReceiptKind,
		TotalAmount: req.TotalAmount.StringFixed(2),
		Items:       make([]receiptLineResponse, len(req.Items)),
	}
	for i, line := range req.Items {
		resp.Items[i] = receiptLineResponse{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
