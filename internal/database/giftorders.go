package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const giftOrderColumns = `id, user_id, gift_package_id, recipient_name, recipient_email, message,
	delivery_date, assigned_staff, status, price, payment_method, payment_status, payment_reference,
	created_at, updated_at`

func scanGiftOrder(row interface{ Scan(...interface{}) error }) (GiftOrder, error) {
	var g GiftOrder
	err := row.Scan(
		&g.ID, &g.UserID, &g.GiftPackageID, &g.RecipientName, &g.RecipientEmail,
		&g.Message, &g.DeliveryDate, &g.AssignedStaff, &g.Status, &g.Price,
		&g.PaymentMethod, &g.PaymentStatus, &g.PaymentReference, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (q *Queries) collectGiftOrders(ctx context.Context, sql string, args ...interface{}) ([]GiftOrder, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []GiftOrder
	for rows.Next() {
		g, err := scanGiftOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, g)
	}
	return orders, rows.Err()
}

const createGiftOrder = `INSERT INTO gift_orders (user_id, gift_package_id, recipient_name, recipient_email,
	message, delivery_date, status, price, payment_method, payment_status, payment_reference, assigned_staff)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + giftOrderColumns

type CreateGiftOrderParams struct {
	UserID           uuid.UUID
	GiftPackageID    uuid.UUID
	RecipientName    string
	RecipientEmail   pgtype.Text
	Message          pgtype.Text
	DeliveryDate     pgtype.Timestamptz
	Status           string
	Price            pgtype.Numeric
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	AssignedStaff    pgtype.UUID
}

func (q *Queries) CreateGiftOrder(ctx context.Context, arg CreateGiftOrderParams) (GiftOrder, error) {
	return scanGiftOrder(q.db.QueryRow(ctx, createGiftOrder,
		arg.UserID, arg.GiftPackageID, arg.RecipientName, arg.RecipientEmail, arg.Message,
		arg.DeliveryDate, arg.Status, arg.Price, arg.PaymentMethod, arg.PaymentStatus,
		arg.PaymentReference, arg.AssignedStaff))
}

const getGiftOrder = `SELECT ` + giftOrderColumns + ` FROM gift_orders WHERE id = $1`

func (q *Queries) GetGiftOrder(ctx context.Context, id uuid.UUID) (GiftOrder, error) {
	return scanGiftOrder(q.db.QueryRow(ctx, getGiftOrder, id))
}

const getGiftOrderByPaymentReference = `SELECT ` + giftOrderColumns + ` FROM gift_orders WHERE payment_reference = $1`

func (q *Queries) GetGiftOrderByPaymentReference(ctx context.Context, ref string) (GiftOrder, error) {
	return scanGiftOrder(q.db.QueryRow(ctx, getGiftOrderByPaymentReference, ref))
}

const listGiftOrders = `SELECT ` + giftOrderColumns + ` FROM gift_orders ORDER BY created_at DESC`

func (q *Queries) ListGiftOrders(ctx context.Context) ([]GiftOrder, error) {
	return q.collectGiftOrders(ctx, listGiftOrders)
}

const listGiftOrdersByUser = `SELECT ` + giftOrderColumns + ` FROM gift_orders WHERE user_id = $1 ORDER BY created_at DESC`

func (q *Queries) ListGiftOrdersByUser(ctx context.Context, userID uuid.UUID) ([]GiftOrder, error) {
	return q.collectGiftOrders(ctx, listGiftOrdersByUser, userID)
}

const updateGiftOrder = `UPDATE gift_orders
SET status = $2, assigned_staff = COALESCE($3, assigned_staff), updated_at = now()
WHERE id = $1
RETURNING ` + giftOrderColumns

type UpdateGiftOrderParams struct {
	ID            uuid.UUID
	Status        string
	AssignedStaff pgtype.UUID
}

func (q *Queries) UpdateGiftOrder(ctx context.Context, arg UpdateGiftOrderParams) (GiftOrder, error) {
	return scanGiftOrder(q.db.QueryRow(ctx, updateGiftOrder, arg.ID, arg.Status, arg.AssignedStaff))
}
