package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/FulloMyself/tasselgroup-back/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GiftOrderStore defines the database methods needed by gift order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type GiftOrderStore interface {
	GetGiftOrder(ctx context.Context, id uuid.UUID) (database.GiftOrder, error)
	ListGiftOrders(ctx context.Context) ([]database.GiftOrder, error)
	ListGiftOrdersByUser(ctx context.Context, userID uuid.UUID) ([]database.GiftOrder, error)
	UpdateGiftOrder(ctx context.Context, arg database.UpdateGiftOrderParams) (database.GiftOrder, error)
}

// GiftServicer creates gift orders. Satisfied by *service.GiftService.
type GiftServicer interface {
	CreateGiftOrder(ctx context.Context, req service.CreateGiftOrderRequest) (database.GiftOrder, error)
}

// GiftOrderHandler handles gift order endpoints.
type GiftOrderHandler struct {
	store GiftOrderStore
	gifts GiftServicer
	hub   *ws.Hub
}

// NewGiftOrderHandler creates a new GiftOrderHandler.
func NewGiftOrderHandler(store GiftOrderStore, gifts GiftServicer, hub *ws.Hub) *GiftOrderHandler {
	return &GiftOrderHandler{store: store, gifts: gifts, hub: hub}
}

// RegisterRoutes registers gift order endpoints for authenticated users.
func (h *GiftOrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/gift-orders", h.Create)
	r.Get("/gift-orders/mine", h.Mine)
	r.Get("/gift-orders/{id}", h.Get)
}

// RegisterStaffRoutes registers gift order management endpoints for staff.
func (h *GiftOrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/gift-orders", h.List)
	r.Put("/gift-orders/{id}", h.Update)
}

type createGiftOrderRequest struct {
	GiftPackageID  string `json:"gift_package_id"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	Message        string `json:"message"`
	DeliveryDate   string `json:"delivery_date"`
	PaymentMethod  string `json:"payment_method"`
}

type updateGiftOrderRequest struct {
	Status        string `json:"status"`
	AssignedStaff string `json:"assigned_staff"`
}

// Create places a gift order for the authenticated user.
func (h *GiftOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req createGiftOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	gift, err := h.gifts.CreateGiftOrder(r.Context(), service.CreateGiftOrderRequest{
		UserID:         claims.UserID,
		GiftPackageID:  req.GiftPackageID,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		Message:        req.Message,
		DeliveryDate:   req.DeliveryDate,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		h.writeGiftError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("gift.created", map[string]string{
			"gift_order_id": gift.ID.String(),
		})
	}

	writeJSON(w, http.StatusCreated, toGiftOrderResponse(gift))
}

// Mine returns the authenticated user's gift orders.
func (h *GiftOrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	gifts, err := h.store.ListGiftOrdersByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list gift orders by user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toGiftOrderResponses(gifts))
}

// Get returns one gift order. Customers can only see their own.
func (h *GiftOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gift order id"})
		return
	}

	gift, err := h.store.GetGiftOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "gift order not found"})
			return
		}
		log.Printf("ERROR: get gift order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims.Role == enum.RoleCustomer && gift.UserID != claims.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	writeJSON(w, http.StatusOK, toGiftOrderResponse(gift))
}

// List returns all gift orders. Staff and admin only.
func (h *GiftOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.store.ListGiftOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list gift orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toGiftOrderResponses(gifts))
}

// Update changes a gift order's status and optionally its staff assignment.
func (h *GiftOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gift order id"})
		return
	}

	var req updateGiftOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch req.Status {
	case enum.GiftStatusPending, enum.GiftStatusConfirmed, enum.GiftStatusCompleted,
		enum.GiftStatusScheduled, enum.GiftStatusDelivered, enum.GiftStatusCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	assignedStaff := pgtype.UUID{}
	if req.AssignedStaff != "" {
		sid, err := uuid.Parse(req.AssignedStaff)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assigned_staff"})
			return
		}
		assignedStaff = pgtype.UUID{Bytes: sid, Valid: true}
	}

	gift, err := h.store.UpdateGiftOrder(r.Context(), database.UpdateGiftOrderParams{
		ID:            id,
		Status:        req.Status,
		AssignedStaff: assignedStaff,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "gift order not found"})
			return
		}
		log.Printf("ERROR: update gift order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("gift.updated", map[string]string{
			"gift_order_id": gift.ID.String(),
			"status":        gift.Status,
		})
	}

	writeJSON(w, http.StatusOK, toGiftOrderResponse(gift))
}

func toGiftOrderResponses(gifts []database.GiftOrder) []giftOrderResponse {
	resp := make([]giftOrderResponse, 0, len(gifts))
	for _, g := range gifts {
		resp = append(resp, toGiftOrderResponse(g))
	}
	return resp
}

// writeGiftError maps gift service errors onto HTTP statuses.
func (h *GiftOrderHandler) writeGiftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGiftPackageNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrGiftUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
