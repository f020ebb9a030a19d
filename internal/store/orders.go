package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, user_id, status, street, city, state, zip, country,
	payment_method, tracking_number, total_amount, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Street, &o.City, &o.State,
		&o.Zip, &o.Country, &o.PaymentMethod, &o.TrackingNumber, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Keyword   pgtype.Text
	Status    pgtype.Text
	UserID    pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

const orderFilter = `
	($1::text IS NULL OR order_number ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR status = $2)
	AND ($3::uuid IS NULL OR user_id = $3)
	AND ($4::timestamptz IS NULL OR created_at >= $4)
	AND ($5::timestamptz IS NULL OR created_at < $5 + interval '1 day')`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE `+orderFilter+`
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`,
		arg.Keyword, arg.Status, arg.UserID, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+orderFilter,
		arg.Keyword, arg.Status, arg.UserID, arg.StartDate, arg.EndDate).Scan(&n)
	return n, err
}

// GetNextOrderNumber returns the next per-day sequence used to build order
// numbers. Derived from the highest surviving sequence rather than a row
// count: deleting an order must never re-issue a number that is still taken.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(max(substring(order_number FROM 14)::bigint), 0) + 1
		FROM orders
		WHERE order_number LIKE 'ORD-' || to_char(current_date, 'YYYYMMDD') || '-%'`).Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	OrderNumber   string
	UserID        uuid.UUID
	Status        string
	Street        string
	City          string
	State         string
	Zip           string
	Country       string
	PaymentMethod string
	TotalAmount   decimal.Decimal
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, status, street, city, state, zip, country, payment_method, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.UserID, arg.Status, arg.Street, arg.City, arg.State, arg.Zip,
		arg.Country, arg.PaymentMethod, arg.TotalAmount)
	return scanOrder(row)
}

type UpdateOrderParams struct {
	ID            uuid.UUID
	Street        string
	City          string
	State         string
	Zip           string
	Country       string
	PaymentMethod string
}

// UpdateOrder edits shipping and payment details. Handlers must check
// workflow.OrderMutable before calling.
func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET street = $2, city = $3, state = $4, zip = $5, country = $6,
		    payment_method = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Street, arg.City, arg.State, arg.Zip, arg.Country, arg.PaymentMethod)
	return scanOrder(row)
}

type UpdateOrderStatusParams struct {
	ID             uuid.UUID
	Status         string
	TrackingNumber pgtype.Text
	// FromStatus guards against a status change racing between the
	// handler's read and this write.
	FromStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, tracking_number = COALESCE($3, tracking_number), updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.TrackingNumber, arg.FromStatus)
	return scanOrder(row)
}

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

const orderItemColumns = `id, order_id, product_id, product_name, quantity, unit_price, subtotal`

func scanOrderItem(row interface{ Scan(...any) error }) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal)
	return it, err
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY product_name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.Quantity, arg.UnitPrice, arg.Subtotal)
	return scanOrderItem(row)
}
