package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/handler"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/payfast"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const testPassphrase = "jt7NOE43FZPn"

func testGateway() *payfast.Client {
	return &payfast.Client{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  testPassphrase,
		ProcessURL:  "https://sandbox.payfast.co.za/eng/process",
		ReturnURL:   "http://localhost:8080/api/payment/success",
		CancelURL:   "http://localhost:8080/api/payment/cancel",
		NotifyURL:   "http://localhost:8080/api/payment/notify",
	}
}

// --- Mock PaymentStore ---

type mockPaymentStore struct {
	getUserFn func(ctx context.Context, id uuid.UUID) (database.User, error)
}

func (m *mockPaymentStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

// --- Mock PurchaseFinalizer ---

type mockFinalizer struct {
	finalizeFn func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error)
	calls      int
}

func (m *mockFinalizer) FinalizePurchase(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
	m.calls++
	return m.finalizeFn(ctx, req)
}

// --- Recording mailer ---

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func setupPaymentRouter(store *mockPaymentStore, finalize *mockFinalizer, mailer *recordingMailer) chi.Router {
	h := handler.NewPaymentHandler(store, testGateway(), finalize, mailer,
		nil, "http://localhost:3000", "bookings@tasselgroup.co.za")
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testJWTSecret))
			h.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enum.RoleStaff, enum.RoleAdmin))
				h.RegisterStaffRoutes(r)
			})
		})
	})
	return r
}

func testUser(id uuid.UUID) database.User {
	return database.User{
		ID:    id,
		Name:  "Thandi Mokoena",
		Email: "thandi@example.com",
		Role:  enum.RoleCustomer,
		Phone: pgtype.Text{String: "0821234567", Valid: true},
	}
}

// signedITN builds a gateway notification form with a valid signature.
func signedITN(t *testing.T, fields map[string]string) url.Values {
	t.Helper()
	fields["signature"] = payfast.Sign(fields, testPassphrase)
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return form
}

func postNotify(router http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/payment/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func orderITNFields(userID uuid.UUID, reference string) map[string]string {
	payload, _ := json.Marshal(map[string]interface{}{
		"uid": userID,
		"i":   []map[string]interface{}{{"p": uuid.New().String(), "q": 2}},
	})
	return map[string]string{
		"m_payment_id":   reference,
		"payment_status": "COMPLETE",
		"item_name":      "Tassel Group order",
		"amount_gross":   "450.00",
		"custom_str1":    enum.PurchaseTypeOrder,
		"custom_str2":    string(payload),
	}
}

// --- Notify tests ---

func TestPaymentNotifyRejectsBadSignature(t *testing.T) {
	finalize := &mockFinalizer{}
	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})

	fields := orderITNFields(uuid.New(), "TG1001")
	fields["signature"] = "0123456789abcdef0123456789abcdef"
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	rr := postNotify(router, form)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if finalize.calls != 0 {
		t.Errorf("finalize called %d times, want 0", finalize.calls)
	}
}

func TestPaymentNotifyRejectsMissingSignature(t *testing.T) {
	finalize := &mockFinalizer{}
	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})

	form := url.Values{}
	for k, v := range orderITNFields(uuid.New(), "TG1002") {
		form.Set(k, v)
	}

	rr := postNotify(router, form)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if finalize.calls != 0 {
		t.Errorf("finalize called %d times, want 0", finalize.calls)
	}
}

func TestPaymentNotifyAcknowledgesIncomplete(t *testing.T) {
	finalize := &mockFinalizer{}
	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})

	fields := orderITNFields(uuid.New(), "TG1003")
	fields["payment_status"] = "PENDING"

	rr := postNotify(router, signedITN(t, fields))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != "OK" {
		t.Errorf("body: got %q, want OK", rr.Body.String())
	}
	if finalize.calls != 0 {
		t.Errorf("finalize called %d times, want 0", finalize.calls)
	}
}

func TestPaymentNotifyFinalizesOrder(t *testing.T) {
	userID := uuid.New()
	mailer := &recordingMailer{}

	finalize := &mockFinalizer{
		finalizeFn: func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
			if req.Type != enum.PurchaseTypeOrder {
				t.Errorf("type: got %q, want order", req.Type)
			}
			if req.UserID != userID {
				t.Errorf("user_id: got %v, want %v", req.UserID, userID)
			}
			if req.PaymentMethod != enum.PaymentMethodPayfast {
				t.Errorf("payment_method: got %q, want payfast", req.PaymentMethod)
			}
			if req.PaymentStatus != enum.PaymentStatusCompleted {
				t.Errorf("payment_status: got %q, want completed", req.PaymentStatus)
			}
			if req.PaymentReference != "TG1004" {
				t.Errorf("reference: got %q, want TG1004", req.PaymentReference)
			}
			if req.Order == nil || len(req.Order.Items) != 1 || req.Order.Items[0].Quantity != 2 {
				t.Errorf("unexpected order payload: %+v", req.Order)
			}
			return &service.FinalizeResult{Type: req.Type}, nil
		},
	}
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return testUser(id), nil
		},
	}

	router := setupPaymentRouter(store, finalize, mailer)
	rr := postNotify(router, signedITN(t, orderITNFields(userID, "TG1004")))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if rr.Body.String() != "OK" {
		t.Errorf("body: got %q, want OK", rr.Body.String())
	}
	if finalize.calls != 1 {
		t.Errorf("finalize called %d times, want 1", finalize.calls)
	}

	// Customer confirmation plus business notification.
	got := mailer.recipients()
	if len(got) != 2 || got[0] != "thandi@example.com" || got[1] != "bookings@tasselgroup.co.za" {
		t.Errorf("recipients: got %v", got)
	}
}

func TestPaymentNotifyDuplicateDeliverySkipsEmails(t *testing.T) {
	mailer := &recordingMailer{}
	finalize := &mockFinalizer{
		finalizeFn: func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
			return &service.FinalizeResult{Type: req.Type, AlreadyProcessed: true}, nil
		},
	}

	router := setupPaymentRouter(&mockPaymentStore{}, finalize, mailer)
	rr := postNotify(router, signedITN(t, orderITNFields(uuid.New(), "TG1005")))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := mailer.recipients(); len(got) != 0 {
		t.Errorf("recipients: got %v, want none", got)
	}
}

func TestPaymentNotifyFinalizeFailure(t *testing.T) {
	finalize := &mockFinalizer{
		finalizeFn: func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
			return nil, context.DeadlineExceeded
		},
	}

	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})
	rr := postNotify(router, signedITN(t, orderITNFields(uuid.New(), "TG1006")))

	// A 500 makes the gateway retry the notification.
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

// --- Initiate tests ---

func TestPaymentInitiateBuildsSignedFields(t *testing.T) {
	claims := customerClaims()
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			if id != claims.UserID {
				t.Errorf("user lookup: got %v, want %v", id, claims.UserID)
			}
			return testUser(id), nil
		},
	}

	router := setupPaymentRouter(store, &mockFinalizer{}, &recordingMailer{})
	rr := doAuthRequest(t, router, "POST", "/api/payment/initiate", map[string]interface{}{
		"type":      "order",
		"amount":    "450.00",
		"item_name": "Tassel Group order",
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 2},
		},
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		ProcessURL string            `json:"process_url"`
		Reference  string            `json:"reference"`
		Fields     map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !strings.HasPrefix(resp.Reference, "TG") {
		t.Errorf("reference: got %q, want TG prefix", resp.Reference)
	}
	if resp.Fields["amount"] != "450.00" {
		t.Errorf("amount: got %q, want 450.00", resp.Fields["amount"])
	}
	if resp.Fields["cell_number"] != "27821234567" {
		t.Errorf("cell_number: got %q", resp.Fields["cell_number"])
	}

	// The signature must verify against the fields as posted.
	sig := resp.Fields["signature"]
	delete(resp.Fields, "signature")
	if payfast.Sign(resp.Fields, testPassphrase) != sig {
		t.Error("signature does not verify")
	}

	// The payload must carry the buyer's identity for the webhook.
	var payload struct {
		UserID uuid.UUID `json:"uid"`
	}
	if err := json.Unmarshal([]byte(resp.Fields["custom_str2"]), &payload); err != nil {
		t.Fatalf("decode custom payload: %v", err)
	}
	if payload.UserID != claims.UserID {
		t.Errorf("payload user: got %v, want %v", payload.UserID, claims.UserID)
	}
}

func TestPaymentInitiateValidation(t *testing.T) {
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return testUser(id), nil
		},
	}
	router := setupPaymentRouter(store, &mockFinalizer{}, &recordingMailer{})

	items := []map[string]interface{}{{"product_id": uuid.New().String(), "quantity": 1}}

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"zero amount", map[string]interface{}{"type": "order", "amount": "0", "item_name": "x", "items": items}},
		{"bad amount", map[string]interface{}{"type": "order", "amount": "lots", "item_name": "x", "items": items}},
		{"missing item name", map[string]interface{}{"type": "order", "amount": "100.00", "items": items}},
		{"unknown type", map[string]interface{}{"type": "subscription", "amount": "100.00", "item_name": "x"}},
		{"order without items", map[string]interface{}{"type": "order", "amount": "100.00", "item_name": "x"}},
		{"booking without details", map[string]interface{}{"type": "booking", "amount": "100.00", "item_name": "x"}},
		{"gift without details", map[string]interface{}{"type": "gift", "amount": "100.00", "item_name": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doAuthRequest(t, router, "POST", "/api/payment/initiate", tt.body, customerClaims())
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
		})
	}
}

func TestPaymentInitiateRejectsOversizedCheckout(t *testing.T) {
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return testUser(id), nil
		},
	}
	router := setupPaymentRouter(store, &mockFinalizer{}, &recordingMailer{})

	// Enough line items to overflow the gateway's 255-char payload field.
	items := make([]map[string]interface{}, 8)
	for i := range items {
		items[i] = map[string]interface{}{"product_id": uuid.New().String(), "quantity": 1}
	}

	rr := doAuthRequest(t, router, "POST", "/api/payment/initiate", map[string]interface{}{
		"type":      "order",
		"amount":    "999.00",
		"item_name": "Tassel Group order",
		"items":     items,
	}, customerClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

// --- Manual order tests ---

func TestPaymentManualOrderRecordsCounterSale(t *testing.T) {
	customerID := uuid.New()
	staff := staffClaims()
	mailer := &recordingMailer{}

	finalize := &mockFinalizer{
		finalizeFn: func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
			if req.PaymentMethod != enum.PaymentMethodManual {
				t.Errorf("payment_method: got %q, want manual", req.PaymentMethod)
			}
			if req.PaymentStatus != enum.PaymentStatusManual {
				t.Errorf("payment_status: got %q, want manual", req.PaymentStatus)
			}
			if req.UserID != customerID {
				t.Errorf("user_id: got %v, want customer %v", req.UserID, customerID)
			}
			if req.Order == nil || len(req.Order.Items) != 1 {
				t.Fatalf("unexpected order payload: %+v", req.Order)
			}
			// The acting staff member is stamped on the order.
			if req.Order.ProcessedBy != staff.UserID {
				t.Errorf("processed_by: got %v, want %v", req.Order.ProcessedBy, staff.UserID)
			}
			return &service.FinalizeResult{
				Type: req.Type,
				Order: &service.CreateOrderResult{
					Order: database.Order{
						ID:         uuid.New(),
						UserID:     req.UserID,
						Status:     enum.OrderStatusPending,
						FinalTotal: testNumeric(t, "360.00"),
					},
				},
			}, nil
		},
	}
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return testUser(id), nil
		},
	}

	router := setupPaymentRouter(store, finalize, mailer)
	rr := doAuthRequest(t, router, "POST", "/api/payment/manual-order", map[string]interface{}{
		"user_id": customerID.String(),
		"type":    "order",
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 2},
		},
	}, staff)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if finalize.calls != 1 {
		t.Errorf("finalize called %d times, want 1", finalize.calls)
	}

	body := decodeBody(t, rr)
	if body["final_total"] != "360.00" {
		t.Errorf("final_total: got %v, want 360.00", body["final_total"])
	}

	// The customer still gets a confirmation, plus the business copy.
	got := mailer.recipients()
	if len(got) != 2 || got[0] != "thandi@example.com" || got[1] != "bookings@tasselgroup.co.za" {
		t.Errorf("recipients: got %v", got)
	}
}

func TestPaymentManualOrderRejectsUnknownType(t *testing.T) {
	finalize := &mockFinalizer{}
	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})

	rr := doAuthRequest(t, router, "POST", "/api/payment/manual-order", map[string]interface{}{
		"user_id": uuid.New().String(),
		"type":    "subscription",
	}, staffClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	if finalize.calls != 0 {
		t.Errorf("finalize called %d times, want 0", finalize.calls)
	}
}

func TestPaymentManualOrderForbiddenForCustomers(t *testing.T) {
	finalize := &mockFinalizer{}
	router := setupPaymentRouter(&mockPaymentStore{}, finalize, &recordingMailer{})

	rr := doAuthRequest(t, router, "POST", "/api/payment/manual-order", map[string]interface{}{
		"user_id": uuid.New().String(),
		"type":    "order",
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
		},
	}, customerClaims())

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if finalize.calls != 0 {
		t.Errorf("finalize called %d times, want 0", finalize.calls)
	}
}

func TestPaymentManualBookingDefaultsToActingStaff(t *testing.T) {
	customerID := uuid.New()
	staff := staffClaims()

	finalize := &mockFinalizer{
		finalizeFn: func(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error) {
			if req.Booking == nil {
				t.Fatal("booking payload missing")
			}
			if req.Booking.StaffID != staff.UserID.String() {
				t.Errorf("staff_id: got %q, want acting staff %q", req.Booking.StaffID, staff.UserID)
			}
			return &service.FinalizeResult{
				Type: req.Type,
				Booking: &database.Booking{
					ID:            uuid.New(),
					UserID:        req.UserID,
					Status:        enum.BookingStatusPending,
					Price:         testNumeric(t, "520.00"),
					PaymentStatus: enum.PaymentStatusManual,
				},
			}, nil
		},
	}
	store := &mockPaymentStore{
		getUserFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return testUser(id), nil
		},
	}

	router := setupPaymentRouter(store, finalize, &recordingMailer{})
	rr := doAuthRequest(t, router, "POST", "/api/payment/manual-order", map[string]interface{}{
		"user_id": customerID.String(),
		"type":    "booking",
		"booking": map[string]interface{}{
			"service_id":   uuid.New().String(),
			"scheduled_at": "2026-09-15T10:00:00Z",
		},
	}, staff)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["payment_status"] != enum.PaymentStatusManual {
		t.Errorf("payment_status: got %v, want manual", body["payment_status"])
	}
}

func TestPaymentBrowserReturnRedirects(t *testing.T) {
	router := setupPaymentRouter(&mockPaymentStore{}, &mockFinalizer{}, &recordingMailer{})

	req := httptest.NewRequest("GET", "/api/payment/success", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != "http://localhost:3000/payment/success" {
		t.Errorf("location: got %q", loc)
	}

	req = httptest.NewRequest("GET", "/api/payment/cancel", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if loc := rr.Header().Get("Location"); loc != "http://localhost:3000/payment/cancel" {
		t.Errorf("location: got %q", loc)
	}
}
