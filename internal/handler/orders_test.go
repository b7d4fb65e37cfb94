package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FulloMyself/tasselgroup-back/internal/auth"
	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/handler"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Shared test helpers ---

const testJWTSecret = "test-secret"

func testNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

func customerClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: enum.RoleCustomer}
}

func staffClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: enum.RoleStaff}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: enum.RoleAdmin}
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if claims != nil {
		token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Role)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Mock OrderServicer ---

type mockOrderService struct {
	createFn func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

// --- Mock OrderStore ---

type mockOrderStore struct {
	getOrderFn          func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn        func(ctx context.Context) ([]database.Order, error)
	listOrdersByUserFn  func(ctx context.Context, userID uuid.UUID) ([]database.Order, error)
	listOrderItemsFn    func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	updateOrderStatusFn func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) ListOrders(ctx context.Context) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx)
	}
	return []database.Order{}, nil
}

func (m *mockOrderStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]database.Order, error) {
	if m.listOrdersByUserFn != nil {
		return m.listOrdersByUserFn(ctx, userID)
	}
	return []database.Order{}, nil
}

func (m *mockOrderStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listOrderItemsFn != nil {
		return m.listOrderItemsFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

func setupOrderRouter(svc *mockOrderService, store *mockOrderStore) chi.Router {
	h := handler.NewOrderHandler(store, svc, nil)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterRoutes(r)
		h.RegisterStaffRoutes(r)
	})
	return r
}

func testOrder(t *testing.T, userID uuid.UUID) database.Order {
	t.Helper()
	return database.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         enum.OrderStatusPending,
		Subtotal:       testNumeric(t, "450.00"),
		DiscountAmount: testNumeric(t, "0.00"),
		FinalTotal:     testNumeric(t, "450.00"),
		PaymentMethod:  enum.PaymentMethodCard,
		PaymentStatus:  enum.PaymentStatusPending,
	}
}

// --- Tests ---

func TestOrderCreate(t *testing.T) {
	claims := customerClaims()
	productID := uuid.New()

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if req.UserID != claims.UserID {
				t.Errorf("user_id: got %v, want %v", req.UserID, claims.UserID)
			}
			if len(req.Items) != 1 || req.Items[0].ProductID != productID.String() {
				t.Errorf("unexpected items: %+v", req.Items)
			}
			if req.Items[0].Quantity != 2 {
				t.Errorf("quantity: got %d, want 2", req.Items[0].Quantity)
			}
			order := testOrder(t, claims.UserID)
			return &service.CreateOrderResult{Order: order}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"payment_method": "card",
		"items": []map[string]interface{}{
			{"product_id": productID.String(), "quantity": 2},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["final_total"] != "450.00" {
		t.Errorf("final_total: got %v, want 450.00", resp["final_total"])
	}
	if resp["status"] != "pending" {
		t.Errorf("status: got %v, want pending", resp["status"])
	}
}

func TestOrderCreateInsufficientStock(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrInsufficientStock
		},
	}

	router := setupOrderRouter(svc, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 99},
		},
	}, customerClaims())

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderCreateUnauthenticated(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{}, nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderMine(t *testing.T) {
	claims := customerClaims()
	order := testOrder(t, claims.UserID)

	store := &mockOrderStore{
		listOrdersByUserFn: func(ctx context.Context, userID uuid.UUID) ([]database.Order, error) {
			if userID != claims.UserID {
				t.Errorf("user_id: got %v, want %v", userID, claims.UserID)
			}
			return []database.Order{order}, nil
		},
		listOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return []database.OrderItem{{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: uuid.New(),
				Name:      "Lavender Body Oil",
				UnitPrice: testNumeric(t, "225.00"),
				Quantity:  2,
				Subtotal:  testNumeric(t, "450.00"),
			}}, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/orders/mine", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("orders: got %d, want 1", len(resp))
	}
	items, ok := resp[0]["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("items: got %v, want 1 item", resp[0]["items"])
	}
}

func TestOrderGetOwnership(t *testing.T) {
	owner := customerClaims()
	other := customerClaims()
	order := testOrder(t, owner.UserID)

	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
	}
	router := setupOrderRouter(&mockOrderService{}, store)

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, other)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("other customer status: got %d, want %d", rr.Code, http.StatusForbidden)
	}

	rr = doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, owner)
	if rr.Code != http.StatusOK {
		t.Fatalf("owner status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// Staff can read any order.
	rr = doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, staffClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("staff status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestOrderGetNotFound(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.New().String(), nil, customerClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	claims := staffClaims()
	order := testOrder(t, uuid.New())

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			if arg.Status != enum.OrderStatusShipped {
				t.Errorf("status: got %q, want shipped", arg.Status)
			}
			if !arg.TrackingNumber.Valid || arg.TrackingNumber.String != "TRK-123" {
				t.Errorf("tracking_number: got %+v, want TRK-123", arg.TrackingNumber)
			}
			if !arg.ProcessedBy.Valid || uuid.UUID(arg.ProcessedBy.Bytes) != claims.UserID {
				t.Errorf("processed_by: got %+v, want %v", arg.ProcessedBy, claims.UserID)
			}
			updated := order
			updated.Status = arg.Status
			updated.TrackingNumber = arg.TrackingNumber
			return updated, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status":          "shipped",
		"tracking_number": "TRK-123",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "shipped" {
		t.Errorf("status: got %v, want shipped", resp["status"])
	}
}

func TestOrderUpdateStatusRejectsUnknown(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderStore{})
	rr := doAuthRequest(t, router, "PUT", "/orders/"+uuid.New().String()+"/status", map[string]interface{}{
		"status": "teleported",
	}, staffClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
