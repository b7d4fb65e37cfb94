package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockFinalizeStore struct {
	orderByRef   map[string]database.Order
	bookingByRef map[string]database.Booking
	giftByRef    map[string]database.GiftOrder
}

func (m *mockFinalizeStore) GetOrderByPaymentReference(ctx context.Context, ref string) (database.Order, error) {
	if o, ok := m.orderByRef[ref]; ok {
		return o, nil
	}
	return database.Order{}, pgx.ErrNoRows
}
func (m *mockFinalizeStore) GetBookingByPaymentReference(ctx context.Context, ref string) (database.Booking, error) {
	if b, ok := m.bookingByRef[ref]; ok {
		return b, nil
	}
	return database.Booking{}, pgx.ErrNoRows
}
func (m *mockFinalizeStore) GetGiftOrderByPaymentReference(ctx context.Context, ref string) (database.GiftOrder, error) {
	if g, ok := m.giftByRef[ref]; ok {
		return g, nil
	}
	return database.GiftOrder{}, pgx.ErrNoRows
}
func (m *mockFinalizeStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return nil, nil
}

func newFinalizeService(store *mockFinalizeStore, orderStore *mockOrderStore, bookingStore *mockBookingStore) *FinalizeService {
	orders, _ := newTestService(orderStore)
	var bookings *BookingService
	if bookingStore != nil {
		bookings = NewBookingService(bookingStore)
	}
	return NewFinalizeService(store, orders, bookings, nil)
}

func TestFinalizePurchase_OrderTakesStock(t *testing.T) {
	productID := uuid.New()
	decremented := false
	orderStore := defaultStore(productID)
	baseDecrement := orderStore.decrementProductStockFn
	orderStore.decrementProductStockFn = func(ctx context.Context, arg database.DecrementProductStockParams) (int64, error) {
		decremented = true
		return baseDecrement(ctx, arg)
	}
	svc := newFinalizeService(&mockFinalizeStore{}, orderStore, nil)

	result, err := svc.FinalizePurchase(context.Background(), FinalizeRequest{
		Type:             enum.PurchaseTypeOrder,
		UserID:           uuid.New(),
		PaymentMethod:    enum.PaymentMethodPayfast,
		PaymentStatus:    enum.PaymentStatusCompleted,
		PaymentReference: "TG1712345678901234",
		Order: &CreateOrderRequest{
			Items: []CreateOrderItemRequest{{ProductID: productID.String(), Quantity: 1}},
		},
	})
	if err != nil {
		t.Fatalf("finalize purchase: %v", err)
	}

	if !decremented {
		t.Error("finalizing an order must take stock like direct checkout")
	}
	if result.AlreadyProcessed {
		t.Error("fresh reference must not be marked already processed")
	}
	if result.Order.Order.PaymentStatus != enum.PaymentStatusCompleted {
		t.Errorf("payment status: got %s", result.Order.Order.PaymentStatus)
	}
	if result.Order.Order.PaymentReference != "TG1712345678901234" {
		t.Errorf("payment reference: got %s", result.Order.Order.PaymentReference)
	}
}

func TestFinalizePurchase_DuplicateReferenceShortCircuits(t *testing.T) {
	existing := database.Order{
		ID:               uuid.New(),
		PaymentReference: "TG1712345678901234",
		PaymentStatus:    enum.PaymentStatusCompleted,
	}
	store := &mockFinalizeStore{orderByRef: map[string]database.Order{existing.PaymentReference: existing}}

	orderStore := defaultStore(uuid.New())
	orderStore.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		t.Fatal("must not create a second order for the same reference")
		return database.Order{}, nil
	}
	svc := newFinalizeService(store, orderStore, nil)

	result, err := svc.FinalizePurchase(context.Background(), FinalizeRequest{
		Type:             enum.PurchaseTypeOrder,
		UserID:           uuid.New(),
		PaymentReference: existing.PaymentReference,
		Order:            &CreateOrderRequest{Items: []CreateOrderItemRequest{{ProductID: uuid.New().String(), Quantity: 1}}},
	})
	if err != nil {
		t.Fatalf("finalize purchase: %v", err)
	}

	if !result.AlreadyProcessed {
		t.Error("expected AlreadyProcessed for a known reference")
	}
	if result.Order.Order.ID != existing.ID {
		t.Error("expected the stored order to be returned")
	}
}

func TestFinalizePurchase_Booking(t *testing.T) {
	serviceID := uuid.New()
	svc := newFinalizeService(&mockFinalizeStore{}, defaultStore(uuid.New()), bookingStoreWithService(serviceID, true))

	result, err := svc.FinalizePurchase(context.Background(), FinalizeRequest{
		Type:             enum.PurchaseTypeBooking,
		UserID:           uuid.New(),
		PaymentMethod:    enum.PaymentMethodPayfast,
		PaymentStatus:    enum.PaymentStatusCompleted,
		PaymentReference: "TG1798765432105678",
		Booking: &CreateBookingRequest{
			ServiceID:   serviceID.String(),
			ScheduledAt: time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		},
	})
	if err != nil {
		t.Fatalf("finalize purchase: %v", err)
	}

	if result.Booking == nil {
		t.Fatal("expected booking in result")
	}
	if result.Booking.PaymentStatus != enum.PaymentStatusCompleted {
		t.Errorf("payment status: got %s", result.Booking.PaymentStatus)
	}
}

func TestFinalizePurchase_BookingAfterSlotStarted(t *testing.T) {
	// The gateway retries notifications, so a COMPLETE delivery can land
	// after the appointment time. The paid booking must still be recorded.
	serviceID := uuid.New()
	svc := newFinalizeService(&mockFinalizeStore{}, defaultStore(uuid.New()), bookingStoreWithService(serviceID, true))

	result, err := svc.FinalizePurchase(context.Background(), FinalizeRequest{
		Type:             enum.PurchaseTypeBooking,
		UserID:           uuid.New(),
		PaymentMethod:    enum.PaymentMethodPayfast,
		PaymentStatus:    enum.PaymentStatusCompleted,
		PaymentReference: "TG1798765432109999",
		Booking: &CreateBookingRequest{
			ServiceID:   serviceID.String(),
			ScheduledAt: time.Now().Add(-3 * time.Hour).Format(time.RFC3339),
		},
	})
	if err != nil {
		t.Fatalf("finalize purchase: %v", err)
	}
	if result.Booking == nil {
		t.Fatal("expected booking in result")
	}
	if result.Booking.PaymentStatus != enum.PaymentStatusCompleted {
		t.Errorf("payment status: got %s", result.Booking.PaymentStatus)
	}
}

func TestFinalizePurchase_UnknownType(t *testing.T) {
	svc := newFinalizeService(&mockFinalizeStore{}, defaultStore(uuid.New()), nil)

	_, err := svc.FinalizePurchase(context.Background(), FinalizeRequest{Type: "subscription"})
	if !errors.Is(err, ErrUnknownPurchaseType) {
		t.Errorf("expected ErrUnknownPurchaseType, got %v", err)
	}
}
