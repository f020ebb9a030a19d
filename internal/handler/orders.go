package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/middleware"
	"github.com/hmes-platform/api/internal/service"
	"github.com/hmes-platform/api/internal/store"
	"github.com/hmes-platform/api/internal/workflow"
	"github.com/shopspring/decimal"
)

// OrderStore defines the database methods needed by order handlers beyond
// creation, which goes through the order service.
// Satisfied by *store.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.Order, error)
	CountOrders(ctx context.Context, arg store.ListOrdersParams) (int64, error)
	UpdateOrder(ctx context.Context, arg store.UpdateOrderParams) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
}

// OrderCreator creates orders atomically with server-side pricing.
// Satisfied by *service.OrderService.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store   OrderStore
	creator OrderCreator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, creator OrderCreator) *OrderHandler {
	return &OrderHandler{store: store, creator: creator}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	PaymentMethod string                   `json:"payment_method"`
	Street        string                   `json:"street"`
	City          string                   `json:"city"`
	State         string                   `json:"state"`
	Zip           string                   `json:"zip"`
	Country       string                   `json:"country"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type updateOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	UserID         uuid.UUID       `json:"user_id"`
	Status         string          `json:"status"`
	Street         string          `json:"street"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	Zip            string          `json:"zip"`
	Country        string          `json:"country"`
	PaymentMethod  string          `json:"payment_method"`
	TrackingNumber *string         `json:"tracking_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

type orderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

func toOrderResponse(o store.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		Street:         o.Street,
		City:           o.City,
		State:          o.State,
		Zip:            o.Zip,
		Country:        o.Country,
		PaymentMethod:  o.PaymentMethod,
		TrackingNumber: textPtr(o.TrackingNumber),
		TotalAmount:    o.TotalAmount,
		CreatedAt:      o.CreatedAt,
	}
}

func toOrderItemResponse(it store.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		Subtotal:    it.Subtotal,
	}
}

func toOrderDetailResponse(o store.Order, items []store.OrderItem) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: toOrderResponse(o),
		Items:         make([]orderItemResponse, len(items)),
	}
	for i, it := range items {
		resp.Items[i] = toOrderItemResponse(it)
	}
	return resp
}

// --- Handlers ---

// List returns a page of orders. Customers only see their own orders; the
// userId filter is available to staff and admins.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	p := parsePagination(r)
	arg := store.ListOrdersParams{
		Keyword: queryText(r, "keyword"),
		Status:  queryText(r, "status"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	if claims.Role == enum.UserRoleCustomer {
		arg.UserID = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	} else if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		arg.UserID = pgtype.UUID{Bytes: id, Valid: true}
	}

	for _, q := range []struct {
		name string
		dst  *pgtype.Timestamptz
	}{
		{"startDate", &arg.StartDate},
		{"endDate", &arg.EndDate},
	} {
		raw := r.URL.Query().Get(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+q.name)
			return
		}
		*q.dst = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list orders", err)
		return
	}
	total, err := h.store.CountOrders(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writePage(w, resp, p, total)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchOrder(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), order.ID)
	if err != nil {
		writeInternalError(w, "list order items", err)
		return
	}

	writeResponse(w, http.StatusOK, toOrderDetailResponse(order, items))
}

// Create places a new order for the calling user. Line items are priced from
// the current product price inside the service transaction.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq := service.CreateOrderRequest{
		UserID:        claims.UserID,
		PaymentMethod: req.PaymentMethod,
		Street:        req.Street,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Country:       req.Country,
		Items:         make([]service.CreateOrderItemRequest, len(req.Items)),
	}
	for i, it := range req.Items {
		svcReq.Items[i] = service.CreateOrderItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
	}

	result, err := h.creator.CreateOrder(r.Context(), svcReq)
	if err != nil {
		if service.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, "create order", err)
		return
	}

	writeResponse(w, http.StatusCreated, toOrderDetailResponse(result.Order, result.Items))
}

// Update edits shipping and payment details. Locked once the order shipped.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchOrder(w, r)
	if !ok {
		return
	}

	if !workflow.OrderMutable(order.Status) {
		writeError(w, http.StatusConflict, "order can no longer be edited")
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !enum.IsPaymentMethod(req.PaymentMethod) {
		writeError(w, http.StatusBadRequest, "invalid payment_method")
		return
	}
	if req.Street == "" || req.City == "" || req.Zip == "" || req.Country == "" {
		writeError(w, http.StatusBadRequest, "shipping address is incomplete")
		return
	}

	updated, err := h.store.UpdateOrder(r.Context(), store.UpdateOrderParams{
		ID:            order.ID,
		Street:        req.Street,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Country:       req.Country,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeInternalError(w, "update order", err)
		return
	}

	writeResponse(w, http.StatusOK, toOrderResponse(updated))
}

// UpdateStatus applies a workflow transition. Moving to Shipped generates a
// tracking number when the order does not have one yet.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchOrder(w, r)
	if !ok {
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !workflow.IsOrderStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if err := workflow.ValidateOrderTransition(order.Status, req.Status); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	var tracking pgtype.Text
	if req.Status == enum.OrderStatusShipped && !order.TrackingNumber.Valid {
		tracking = pgtype.Text{String: newTrackingNumber(), Valid: true}
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), store.UpdateOrderStatusParams{
		ID:             order.ID,
		Status:         req.Status,
		TrackingNumber: tracking,
		FromStatus:     order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "order status changed, retry")
			return
		}
		writeInternalError(w, "update order status", err)
		return
	}

	writeResponse(w, http.StatusOK, toOrderResponse(updated))
}

// Delete removes an order. Shipped and delivered orders are kept for the record.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchOrder(w, r)
	if !ok {
		return
	}

	if !workflow.OrderMutable(order.Status) {
		writeError(w, http.StatusConflict, "shipped or delivered orders cannot be deleted")
		return
	}

	if _, err := h.store.DeleteOrder(r.Context(), order.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, "delete order", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// fetchOrder loads the order from the URL and enforces customer ownership.
// Writes the error response itself on failure.
func (h *OrderHandler) fetchOrder(w http.ResponseWriter, r *http.Request) (store.Order, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return store.Order{}, false
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return store.Order{}, false
		}
		writeInternalError(w, "get order", err)
		return store.Order{}, false
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role == enum.UserRoleCustomer && order.UserID != claims.UserID {
		writeError(w, http.StatusNotFound, "order not found")
		return store.Order{}, false
	}

	return order, true
}

func newTrackingNumber() string {
	return fmt.Sprintf("TRK-%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]))
}
