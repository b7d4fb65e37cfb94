package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the purchase services.
var (
	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidProductID    = errors.New("invalid product_id")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherExhausted    = errors.New("voucher is no longer valid")
	ErrServiceNotFound     = errors.New("service not found")
	ErrServiceUnavailable  = errors.New("service is not available")
	ErrPastBookingDate     = errors.New("booking date is in the past")
	ErrInvalidBookingDate  = errors.New("invalid booking date")
	ErrGiftPackageNotFound = errors.New("gift package not found")
	ErrGiftUnavailable     = errors.New("gift package is not available")
	ErrUnknownPurchaseType = errors.New("unknown purchase type")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	DecrementProductStock(ctx context.Context, arg database.DecrementProductStockParams) (int64, error)
	GetVoucherByCode(ctx context.Context, code string) (database.Voucher, error)
	ConsumeVoucher(ctx context.Context, code string) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	UserID           uuid.UUID
	Items            []CreateOrderItemRequest
	VoucherCode      string
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	ShippingAddress  string

	// ProcessedBy records the staff member who captured the order when it
	// was placed at the counter rather than by the customer.
	ProcessedBy uuid.UUID
}

// CreateOrderItemRequest is a single item in the order.
type CreateOrderItemRequest struct {
	ProductID string
	Quantity  int32
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
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

// processedItem holds a prepared order item with its price snapshot.
type processedItem struct {
	productID uuid.UUID
	name      string
	unitPrice decimal.Decimal
	quantity  int32
	subtotal  decimal.Decimal
}

// CreateOrder validates items, takes stock, applies the voucher and creates
// the order atomically. Stock decrements and voucher consumption are
// conditional updates, so two concurrent checkouts can never both take the
// last unit or the last voucher use.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	result, err := createOrderInStore(ctx, store, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// createOrderInStore runs the order workflow against an already-open store.
// Shared with purchase finalization, which supplies its own transaction.
func createOrderInStore(ctx context.Context, store OrderStore, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	subtotal := decimal.Zero
	var items []processedItem

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}

		rows, err := store.DecrementProductStock(ctx, database.DecrementProductStockParams{
			ID:       productID,
			Quantity: item.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("item[%d]: decrement stock: %w", i, err)
		}
		if rows == 0 {
			return nil, fmt.Errorf("item[%d] %s: %w", i, product.Name, ErrInsufficientStock)
		}

		unitPrice := numericToDecimal(product.Price)
		lineSubtotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineSubtotal)

		items = append(items, processedItem{
			productID: productID,
			name:      product.Name,
			unitPrice: unitPrice,
			quantity:  item.Quantity,
			subtotal:  lineSubtotal,
		})
	}

	// --- Voucher ---
	discount := decimal.Zero
	voucherID := pgtype.UUID{}
	if req.VoucherCode != "" {
		voucher, err := store.GetVoucherByCode(ctx, req.VoucherCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherNotFound
			}
			return nil, fmt.Errorf("get voucher: %w", err)
		}
		rows, err := store.ConsumeVoucher(ctx, req.VoucherCode)
		if err != nil {
			return nil, fmt.Errorf("consume voucher: %w", err)
		}
		if rows == 0 {
			return nil, ErrVoucherExhausted
		}

		value := numericToDecimal(voucher.Value)
		if voucher.Type == enum.VoucherTypePercentage {
			discount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
		} else {
			discount = value
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
		voucherID = pgtype.UUID{Bytes: voucher.ID, Valid: true}
	}

	finalTotal := subtotal.Sub(discount)
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCard
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enum.PaymentStatusPending
	}

	shippingAddress := pgtype.Text{}
	if req.ShippingAddress != "" {
		shippingAddress = pgtype.Text{String: req.ShippingAddress, Valid: true}
	}
	processedBy := pgtype.UUID{}
	if req.ProcessedBy != uuid.Nil {
		processedBy = pgtype.UUID{Bytes: req.ProcessedBy, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:           req.UserID,
		Status:           enum.OrderStatusPending,
		Subtotal:         decimalToNumeric(subtotal),
		DiscountAmount:   decimalToNumeric(discount),
		FinalTotal:       decimalToNumeric(finalTotal),
		VoucherID:        voucherID,
		PaymentMethod:    paymentMethod,
		PaymentStatus:    paymentStatus,
		PaymentReference: req.PaymentReference,
		ShippingAddress:  shippingAddress,
		ProcessedBy:      processedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var created []database.OrderItem
	for _, pi := range items {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: pi.productID,
			Name:      pi.name,
			UnitPrice: decimalToNumeric(pi.unitPrice),
			Quantity:  pi.quantity,
			Subtotal:  decimalToNumeric(pi.subtotal),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	return &CreateOrderResult{Order: order, Items: created}, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
