package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductInactive      = errors.New("product is not active")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrMissingAddress       = errors.New("shipping address is incomplete")
)

// IsValidationError reports whether err should surface as 400 Bad Request.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrMissingAddress)
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *store.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	CreateOrderItem(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), so the
// service can run the whole creation inside one transaction.
type NewOrderStore func(db store.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	UserID        uuid.UUID
	PaymentMethod string
	Street        string
	City          string
	State         string
	Zip           string
	Country       string
	Items         []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line item in the order.
type CreateOrderItemRequest struct {
	ProductID string
	Quantity  int32
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order store.Order
	Items []store.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// preparedItem is a line item priced from the current product record.
type preparedItem struct {
	productID   uuid.UUID
	productName string
	quantity    int32
	unitPrice   decimal.Decimal
	subtotal    decimal.Decimal
}

// CreateOrder validates the request, prices every line from the current
// product price, and creates the order atomically. Client-sent prices are
// never trusted: subtotal = price × quantity and the order total is the sum
// of subtotals, all computed here. Retries on order_number unique violations
// (concurrent creates can draw the same daily sequence).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if !enum.IsPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if req.Street == "" || req.City == "" || req.Zip == "" || req.Country == "" {
		return nil, ErrMissingAddress
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	inputs := make([]orderItemInput, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, ErrInvalidProductID
		}
		inputs[i] = orderItemInput{productID: pid, quantity: item.Quantity}
	}

	var result *CreateOrderResult
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, lastErr = s.createOrderOnce(ctx, req, inputs)
		if lastErr == nil {
			return result, nil
		}
		if !isUniqueViolation(lastErr) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("create order: %w", lastErr)
}

// orderItemInput is a parsed line item awaiting pricing.
type orderItemInput struct {
	productID uuid.UUID
	quantity  int32
}

func (s *OrderService) createOrderOnce(ctx context.Context, req CreateOrderRequest, inputs []orderItemInput) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.newStore(tx)

	prepared := make([]preparedItem, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		product, err := qtx.GetProduct(ctx, in.productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product.Status != enum.EntityStatusActive {
			return nil, ErrProductInactive
		}

		subtotal := product.Price.Mul(decimal.NewFromInt32(in.quantity))
		prepared[i] = preparedItem{
			productID:   product.ID,
			productName: product.Name,
			quantity:    in.quantity,
			unitPrice:   product.Price,
			subtotal:    subtotal,
		}
		total = total.Add(subtotal)
	}

	seq, err := qtx.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), seq)

	order, err := qtx.CreateOrder(ctx, store.CreateOrderParams{
		OrderNumber:   orderNumber,
		UserID:        req.UserID,
		Status:        enum.OrderStatusPending,
		Street:        req.Street,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Country:       req.Country,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
	})
	if err != nil {
		return nil, err
	}

	items := make([]store.OrderItem, len(prepared))
	for i, p := range prepared {
		item, err := qtx.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:     order.ID,
			ProductID:   p.productID,
			ProductName: p.productName,
			Quantity:    p.quantity,
			UnitPrice:   p.unitPrice,
			Subtotal:    p.subtotal,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items[i] = item
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &CreateOrderResult{Order: order, Items: items}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
