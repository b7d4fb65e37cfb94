package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/mail"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/payfast"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/FulloMyself/tasselgroup-back/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentStore defines the database methods needed by payment handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PaymentStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// PurchaseFinalizer turns settled payments into domain records.
// Satisfied by *service.FinalizeService.
type PurchaseFinalizer interface {
	FinalizePurchase(ctx context.Context, req service.FinalizeRequest) (*service.FinalizeResult, error)
}

// PaymentHandler handles the Payfast checkout and its ITN webhook.
type PaymentHandler struct {
	store         PaymentStore
	gateway       *payfast.Client
	finalize      PurchaseFinalizer
	mailer        mail.Mailer
	hub           *ws.Hub
	frontendURL   string
	businessEmail string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store PaymentStore, gateway *payfast.Client, finalize PurchaseFinalizer,
	mailer mail.Mailer, hub *ws.Hub, frontendURL, businessEmail string) *PaymentHandler {
	return &PaymentHandler{
		store:         store,
		gateway:       gateway,
		finalize:      finalize,
		mailer:        mailer,
		hub:           hub,
		frontendURL:   frontendURL,
		businessEmail: businessEmail,
	}
}

// RegisterRoutes registers the checkout endpoint for authenticated users.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/payment/initiate", h.Initiate)
}

// RegisterPublicRoutes registers the gateway-facing endpoints. The ITN
// webhook authenticates by signature, not by session.
func (h *PaymentHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/payment/notify", h.Notify)
	r.Get("/payment/success", h.Success)
	r.Get("/payment/cancel", h.Cancel)
}

// RegisterStaffRoutes registers the counter-sale entry point.
func (h *PaymentHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/payment/manual-order", h.ManualOrder)
}

// checkoutPayload rides the gateway's custom_str2 field through the payment
// round-trip. Keys are kept short because the field caps at 255 characters.
type checkoutPayload struct {
	UserID  uuid.UUID       `json:"uid"`
	Voucher string          `json:"v,omitempty"`
	Items   []payloadItem   `json:"i,omitempty"`
	Booking *payloadBooking `json:"b,omitempty"`
	Gift    *payloadGift    `json:"g,omitempty"`
}

type payloadItem struct {
	ProductID string `json:"p"`
	Quantity  int32  `json:"q"`
}

type payloadBooking struct {
	ServiceID   string `json:"s"`
	StaffID     string `json:"st,omitempty"`
	ScheduledAt string `json:"at"`
}

type payloadGift struct {
	PackageID      string `json:"pk"`
	RecipientName  string `json:"rn"`
	RecipientEmail string `json:"re,omitempty"`
	DeliveryDate   string `json:"dd,omitempty"`
}

type initiatePaymentRequest struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	ItemName string `json:"item_name"`

	Items       []orderItemRequest `json:"items"`
	VoucherCode string             `json:"voucher_code"`

	Booking *struct {
		ServiceID   string `json:"service_id"`
		StaffID     string `json:"staff_id"`
		ScheduledAt string `json:"scheduled_at"`
	} `json:"booking"`

	Gift *struct {
		GiftPackageID  string `json:"gift_package_id"`
		RecipientName  string `json:"recipient_name"`
		RecipientEmail string `json:"recipient_email"`
		DeliveryDate   string `json:"delivery_date"`
	} `json:"gift"`
}

type initiatePaymentResponse struct {
	ProcessURL string            `json:"process_url"`
	Reference  string            `json:"reference"`
	Fields     map[string]string `json:"fields"`
}

// Initiate builds the signed field set the client posts to the gateway. The
// domain record is only created when the ITN webhook confirms payment.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}
	if req.ItemName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_name is required"})
		return
	}

	payload := checkoutPayload{UserID: claims.UserID, Voucher: req.VoucherCode}
	switch req.Type {
	case enum.PurchaseTypeOrder:
		if len(req.Items) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
			return
		}
		for _, item := range req.Items {
			payload.Items = append(payload.Items, payloadItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	case enum.PurchaseTypeBooking:
		if req.Booking == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking details are required"})
			return
		}
		payload.Booking = &payloadBooking{
			ServiceID:   req.Booking.ServiceID,
			StaffID:     req.Booking.StaffID,
			ScheduledAt: req.Booking.ScheduledAt,
		}
	case enum.PurchaseTypeGift:
		if req.Gift == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gift details are required"})
			return
		}
		payload.Gift = &payloadGift{
			PackageID:      req.Gift.GiftPackageID,
			RecipientName:  req.Gift.RecipientName,
			RecipientEmail: req.Gift.RecipientEmail,
			DeliveryDate:   req.Gift.DeliveryDate,
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be order, booking or gift"})
		return
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal checkout payload: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(payloadJSON) > 255 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "checkout has too many items for gateway payment"})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payment, err := h.gateway.BuildPaymentRequest(payfast.PaymentRequest{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		CellNumber:    textOrEmpty(user.Phone),
		Amount:        amount,
		ItemName:      req.ItemName,
		PurchaseType:  req.Type,
		CustomPayload: string(payloadJSON),
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, initiatePaymentResponse{
		ProcessURL: payment.ProcessURL,
		Reference:  payment.Reference,
		Fields:     payment.Fields,
	})
}

type manualOrderRequest struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`

	Items       []orderItemRequest `json:"items"`
	VoucherCode string             `json:"voucher_code"`

	Booking *struct {
		ServiceID   string `json:"service_id"`
		StaffID     string `json:"staff_id"`
		ScheduledAt string `json:"scheduled_at"`
	} `json:"booking"`

	Gift *struct {
		GiftPackageID  string `json:"gift_package_id"`
		RecipientName  string `json:"recipient_name"`
		RecipientEmail string `json:"recipient_email"`
		DeliveryDate   string `json:"delivery_date"`
	} `json:"gift"`
}

// ManualOrder records a purchase settled outside the gateway (EFT, cash at
// the till). Staff capture it on the customer's behalf and are stamped on
// the resulting record.
func (h *PaymentHandler) ManualOrder(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req manualOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	finalizeReq := service.FinalizeRequest{
		Type:          req.Type,
		UserID:        userID,
		PaymentMethod: enum.PaymentMethodManual,
		PaymentStatus: enum.PaymentStatusManual,
	}

	switch req.Type {
	case enum.PurchaseTypeOrder:
		if len(req.Items) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
			return
		}
		order := service.CreateOrderRequest{
			VoucherCode: req.VoucherCode,
			ProcessedBy: claims.UserID,
		}
		for _, item := range req.Items {
			order.Items = append(order.Items, service.CreateOrderItemRequest{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		finalizeReq.Order = &order
	case enum.PurchaseTypeBooking:
		if req.Booking == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "booking details are required"})
			return
		}
		staffID := req.Booking.StaffID
		if staffID == "" {
			staffID = claims.UserID.String()
		}
		finalizeReq.Booking = &service.CreateBookingRequest{
			ServiceID:   req.Booking.ServiceID,
			StaffID:     staffID,
			ScheduledAt: req.Booking.ScheduledAt,
		}
	case enum.PurchaseTypeGift:
		if req.Gift == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gift details are required"})
			return
		}
		finalizeReq.Gift = &service.CreateGiftOrderRequest{
			GiftPackageID:  req.Gift.GiftPackageID,
			RecipientName:  req.Gift.RecipientName,
			RecipientEmail: req.Gift.RecipientEmail,
			DeliveryDate:   req.Gift.DeliveryDate,
			AssignedStaff:  claims.UserID.String(),
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be order, booking or gift"})
		return
	}

	result, err := h.finalize.FinalizePurchase(r.Context(), finalizeReq)
	if err != nil {
		writeManualOrderError(w, err)
		return
	}

	var itemName, amount string
	switch {
	case result.Order != nil:
		itemName = "Tassel Group order"
		amount = numericString(result.Order.Order.FinalTotal)
	case result.Booking != nil:
		itemName = "Tassel Group booking"
		amount = numericString(result.Booking.Price)
	case result.Gift != nil:
		itemName = "Tassel Group gift package"
		amount = numericString(result.Gift.Price)
	}
	h.notifyPurchase(r.Context(), userID, itemName, amount, "")
	if h.hub != nil {
		h.hub.BroadcastJSON("payment.manual", map[string]string{
			"type":     result.Type,
			"staff_id": claims.UserID.String(),
		})
	}

	switch {
	case result.Order != nil:
		writeJSON(w, http.StatusCreated, toOrderResponse(result.Order.Order, result.Order.Items))
	case result.Booking != nil:
		writeJSON(w, http.StatusCreated, toBookingResponse(*result.Booking))
	default:
		writeJSON(w, http.StatusCreated, toGiftOrderResponse(*result.Gift))
	}
}

func writeManualOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProductID),
		errors.Is(err, service.ErrInvalidBookingDate):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrVoucherNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrGiftPackageNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrVoucherExhausted),
		errors.Is(err, service.ErrServiceUnavailable),
		errors.Is(err, service.ErrGiftUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: record manual order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// Notify is the Payfast ITN webhook. The gateway retries until it gets a 200,
// so finalization is idempotent per payment reference.
func (h *PaymentHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !h.gateway.VerifyNotification(r.PostForm) {
		log.Printf("WARN: payment notification failed signature check (reference %q)", r.PostForm.Get("m_payment_id"))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	reference := r.PostForm.Get("m_payment_id")
	if r.PostForm.Get("payment_status") != "COMPLETE" {
		log.Printf("payment %s not complete: %s", reference, r.PostForm.Get("payment_status"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
		return
	}

	var payload checkoutPayload
	if err := json.Unmarshal([]byte(r.PostForm.Get("custom_str2")), &payload); err != nil {
		log.Printf("ERROR: payment %s: decode payload: %v", reference, err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	req := service.FinalizeRequest{
		Type:             r.PostForm.Get("custom_str1"),
		UserID:           payload.UserID,
		PaymentMethod:    enum.PaymentMethodPayfast,
		PaymentStatus:    enum.PaymentStatusCompleted,
		PaymentReference: reference,
	}

	switch req.Type {
	case enum.PurchaseTypeOrder:
		order := service.CreateOrderRequest{VoucherCode: payload.Voucher}
		for _, item := range payload.Items {
			order.Items = append(order.Items, service.CreateOrderItemRequest{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		req.Order = &order
	case enum.PurchaseTypeBooking:
		if payload.Booking != nil {
			req.Booking = &service.CreateBookingRequest{
				ServiceID:   payload.Booking.ServiceID,
				StaffID:     payload.Booking.StaffID,
				ScheduledAt: payload.Booking.ScheduledAt,
			}
		}
	case enum.PurchaseTypeGift:
		if payload.Gift != nil {
			req.Gift = &service.CreateGiftOrderRequest{
				GiftPackageID:  payload.Gift.PackageID,
				RecipientName:  payload.Gift.RecipientName,
				RecipientEmail: payload.Gift.RecipientEmail,
				DeliveryDate:   payload.Gift.DeliveryDate,
			}
		}
	}

	result, err := h.finalize.FinalizePurchase(r.Context(), req)
	if err != nil {
		log.Printf("ERROR: finalize payment %s: %v", reference, err)
		http.Error(w, "finalize failed", http.StatusInternalServerError)
		return
	}

	if !result.AlreadyProcessed {
		h.notifyPurchase(r.Context(), payload.UserID, r.PostForm.Get("item_name"),
			r.PostForm.Get("amount_gross"), reference)
		if h.hub != nil {
			h.hub.BroadcastJSON("payment.completed", map[string]string{
				"reference": reference,
				"type":      result.Type,
			})
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK")) //nolint:errcheck
}

// Success is the browser return URL after a completed gateway payment.
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/payment/success", http.StatusSeeOther)
}

// Cancel is the browser return URL after an abandoned gateway payment.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/payment/cancel", http.StatusSeeOther)
}

// notifyPurchase sends the confirmation emails. Failures are logged and
// swallowed so a mail outage never fails the webhook.
func (h *PaymentHandler) notifyPurchase(ctx context.Context, userID uuid.UUID, itemName, amount, reference string) {
	if h.mailer == nil {
		return
	}

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("WARN: purchase emails skipped, get user: %v", err)
		return
	}

	subject, body := mail.PurchaseConfirmation(user.Name, itemName, amount, reference)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		log.Printf("WARN: send confirmation email: %v", err)
	}

	if h.businessEmail != "" {
		subject, body = mail.BusinessNotification(user.Name, itemName, amount, reference)
		if err := h.mailer.Send(h.businessEmail, subject, body); err != nil {
			log.Printf("WARN: send business email: %v", err)
		}
	}
}
