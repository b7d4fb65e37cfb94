package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, status, subtotal, discount_amount, final_total, voucher_id,
	payment_method, payment_status, payment_reference, shipping_address, tracking_number,
	processed_by, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.DiscountAmount, &o.FinalTotal,
		&o.VoucherID, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentReference,
		&o.ShippingAddress, &o.TrackingNumber, &o.ProcessedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (q *Queries) collectOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
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

const createOrder = `INSERT INTO orders (user_id, status, subtotal, discount_amount, final_total,
	voucher_id, payment_method, payment_status, payment_reference, shipping_address, processed_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID           uuid.UUID
	Status           string
	Subtotal         pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	FinalTotal       pgtype.Numeric
	VoucherID        pgtype.UUID
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	ShippingAddress  pgtype.Text
	ProcessedBy      pgtype.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.UserID, arg.Status, arg.Subtotal, arg.DiscountAmount, arg.FinalTotal,
		arg.VoucherID, arg.PaymentMethod, arg.PaymentStatus, arg.PaymentReference,
		arg.ShippingAddress, arg.ProcessedBy))
}

const createOrderItem = `INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, subtotal)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, name, unit_price, quantity, subtotal`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	UnitPrice pgtype.Numeric
	Quantity  int32
	Subtotal  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.Name, arg.UnitPrice, arg.Quantity, arg.Subtotal,
	).Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Name, &i.UnitPrice, &i.Quantity, &i.Subtotal)
	return i, err
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByPaymentReference = `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference = $1`

func (q *Queries) GetOrderByPaymentReference(ctx context.Context, ref string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPaymentReference, ref))
}

const listOrderItems = `SELECT id, order_id, product_id, name, unit_price, quantity, subtotal
FROM order_items WHERE order_id = $1`

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Name, &i.UnitPrice, &i.Quantity, &i.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrders = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	return q.collectOrders(ctx, listOrders)
}

const listOrdersByUser = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

func (q *Queries) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return q.collectOrders(ctx, listOrdersByUser, userID)
}

const updateOrderStatus = `UPDATE orders
SET status = $2, tracking_number = COALESCE($3, tracking_number), processed_by = $4, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID             uuid.UUID
	Status         string
	TrackingNumber pgtype.Text
	ProcessedBy    pgtype.UUID
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID, arg.Status, arg.TrackingNumber, arg.ProcessedBy))
}
