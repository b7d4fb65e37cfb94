package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FinalizeStore defines the reference lookups used for webhook idempotency.
// Satisfied by *database.Queries.
type FinalizeStore interface {
	GetOrderByPaymentReference(ctx context.Context, ref string) (database.Order, error)
	GetBookingByPaymentReference(ctx context.Context, ref string) (database.Booking, error)
	GetGiftOrderByPaymentReference(ctx context.Context, ref string) (database.GiftOrder, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// FinalizeRequest creates the domain record for a settled (or manually
// recorded) payment. Exactly one of Order/Booking/Gift must match Type.
type FinalizeRequest struct {
	Type             string
	UserID           uuid.UUID
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string

	Order   *CreateOrderRequest
	Booking *CreateBookingRequest
	Gift    *CreateGiftOrderRequest
}

// FinalizeResult is the record created (or found) for the payment.
type FinalizeResult struct {
	Type             string
	AlreadyProcessed bool
	Order            *CreateOrderResult
	Booking          *database.Booking
	Gift             *database.GiftOrder
}

// FinalizeService turns settled payments into domain records. The gateway
// webhook and the manual payment path both go through here, so an order paid
// online takes stock and consumes vouchers exactly like a direct checkout.
type FinalizeService struct {
	store    FinalizeStore
	orders   *OrderService
	bookings *BookingService
	gifts    *GiftService
}

// NewFinalizeService creates a new FinalizeService.
func NewFinalizeService(store FinalizeStore, orders *OrderService, bookings *BookingService, gifts *GiftService) *FinalizeService {
	return &FinalizeService{store: store, orders: orders, bookings: bookings, gifts: gifts}
}

// FinalizePurchase is idempotent per payment reference: a record that already
// carries the reference is returned as-is, and a duplicate-key insert (two
// webhook deliveries racing) is resolved by re-reading the winner.
func (s *FinalizeService) FinalizePurchase(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	if req.PaymentReference != "" {
		existing, found, err := s.lookupByReference(ctx, req.Type, req.PaymentReference)
		if err != nil {
			return nil, err
		}
		if found {
			existing.AlreadyProcessed = true
			return existing, nil
		}
	}

	switch req.Type {
	case enum.PurchaseTypeOrder:
		if req.Order == nil {
			return nil, ErrEmptyItems
		}
		orderReq := *req.Order
		orderReq.UserID = req.UserID
		orderReq.PaymentMethod = req.PaymentMethod
		orderReq.PaymentStatus = req.PaymentStatus
		orderReq.PaymentReference = req.PaymentReference
		result, err := s.orders.CreateOrder(ctx, orderReq)
		if err != nil {
			if isDuplicateReference(err) {
				return s.refetchAfterConflict(ctx, req)
			}
			return nil, err
		}
		return &FinalizeResult{Type: req.Type, Order: result}, nil

	case enum.PurchaseTypeBooking:
		if req.Booking == nil {
			return nil, ErrServiceNotFound
		}
		bookingReq := *req.Booking
		bookingReq.UserID = req.UserID
		bookingReq.PaymentMethod = req.PaymentMethod
		bookingReq.PaymentStatus = req.PaymentStatus
		bookingReq.PaymentReference = req.PaymentReference
		bookingReq.Settled = true
		booking, err := s.bookings.CreateBooking(ctx, bookingReq)
		if err != nil {
			if isDuplicateReference(err) {
				return s.refetchAfterConflict(ctx, req)
			}
			return nil, err
		}
		return &FinalizeResult{Type: req.Type, Booking: &booking}, nil

	case enum.PurchaseTypeGift:
		if req.Gift == nil {
			return nil, ErrGiftPackageNotFound
		}
		giftReq := *req.Gift
		giftReq.UserID = req.UserID
		giftReq.PaymentMethod = req.PaymentMethod
		giftReq.PaymentStatus = req.PaymentStatus
		giftReq.PaymentReference = req.PaymentReference
		gift, err := s.gifts.CreateGiftOrder(ctx, giftReq)
		if err != nil {
			if isDuplicateReference(err) {
				return s.refetchAfterConflict(ctx, req)
			}
			return nil, err
		}
		return &FinalizeResult{Type: req.Type, Gift: &gift}, nil
	}

	return nil, ErrUnknownPurchaseType
}

func (s *FinalizeService) refetchAfterConflict(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	existing, found, err := s.lookupByReference(ctx, req.Type, req.PaymentReference)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("payment reference %s: duplicate insert but no existing record", req.PaymentReference)
	}
	existing.AlreadyProcessed = true
	return existing, nil
}

func (s *FinalizeService) lookupByReference(ctx context.Context, purchaseType, ref string) (*FinalizeResult, bool, error) {
	switch purchaseType {
	case enum.PurchaseTypeOrder:
		order, err := s.store.GetOrderByPaymentReference(ctx, ref)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("get order by reference: %w", err)
		}
		items, err := s.store.ListOrderItems(ctx, order.ID)
		if err != nil {
			return nil, false, fmt.Errorf("list order items: %w", err)
		}
		return &FinalizeResult{Type: purchaseType, Order: &CreateOrderResult{Order: order, Items: items}}, true, nil

	case enum.PurchaseTypeBooking:
		booking, err := s.store.GetBookingByPaymentReference(ctx, ref)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("get booking by reference: %w", err)
		}
		return &FinalizeResult{Type: purchaseType, Booking: &booking}, true, nil

	case enum.PurchaseTypeGift:
		gift, err := s.store.GetGiftOrderByPaymentReference(ctx, ref)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("get gift order by reference: %w", err)
		}
		return &FinalizeResult{Type: purchaseType, Gift: &gift}, true, nil
	}

	return nil, false, ErrUnknownPurchaseType
}

// isDuplicateReference checks for a unique constraint violation on the
// payment reference index (pgconn error code 23505).
func isDuplicateReference(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
