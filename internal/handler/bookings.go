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
)

// BookingStore defines the database methods needed by booking handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BookingStore interface {
	GetBooking(ctx context.Context, id uuid.UUID) (database.Booking, error)
	ListBookings(ctx context.Context) ([]database.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]database.Booking, error)
	ListBookingsByStaff(ctx context.Context, staffID uuid.UUID) ([]database.Booking, error)
	ListUnassignedBookings(ctx context.Context) ([]database.Booking, error)
	UpdateBookingStatus(ctx context.Context, arg database.UpdateBookingStatusParams) (database.Booking, error)
	AssignBookingStaff(ctx context.Context, arg database.AssignBookingStaffParams) (database.Booking, error)
}

// BookingServicer creates bookings. Satisfied by *service.BookingService.
type BookingServicer interface {
	CreateBooking(ctx context.Context, req service.CreateBookingRequest) (database.Booking, error)
}

// BookingHandler handles service booking endpoints.
type BookingHandler struct {
	store    BookingStore
	bookings BookingServicer
	hub      *ws.Hub
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(store BookingStore, bookings BookingServicer, hub *ws.Hub) *BookingHandler {
	return &BookingHandler{store: store, bookings: bookings, hub: hub}
}

// RegisterRoutes registers booking endpoints for authenticated users.
func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings", h.Create)
	r.Get("/bookings/mine", h.Mine)
	r.Get("/bookings/{id}", h.Get)
	r.Post("/bookings/{id}/cancel", h.Cancel)
}

// RegisterStaffRoutes registers booking management endpoints for staff.
func (h *BookingHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/bookings", h.List)
	r.Get("/bookings/unassigned", h.ListUnassigned)
	r.Get("/bookings/schedule", h.Schedule)
	r.Put("/bookings/{id}/status", h.UpdateStatus)
	r.Put("/bookings/{id}/assign", h.Assign)
}

type createBookingRequest struct {
	ServiceID       string `json:"service_id"`
	StaffID         string `json:"staff_id"`
	ScheduledAt     string `json:"scheduled_at"`
	SpecialRequests string `json:"special_requests"`
	PaymentMethod   string `json:"payment_method"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

type assignBookingRequest struct {
	StaffID string `json:"staff_id"`
}

// Create books a service slot for the authenticated user.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		UserID:          claims.UserID,
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		ScheduledAt:     req.ScheduledAt,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("booking.created", map[string]string{
			"booking_id": booking.ID.String(),
		})
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

// Mine returns the authenticated user's bookings.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	bookings, err := h.store.ListBookingsByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list bookings by user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// Get returns one booking. Customers can only see their own.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	booking, err := h.store.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: get booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims.Role == enum.RoleCustomer && booking.UserID != claims.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// Cancel lets a customer cancel their own booking while it is still open.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	booking, err := h.store.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: get booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if booking.UserID != claims.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	if booking.Status == enum.BookingStatusCompleted || booking.Status == enum.BookingStatusCancelled {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "booking can no longer be cancelled"})
		return
	}

	updated, err := h.store.UpdateBookingStatus(r.Context(), database.UpdateBookingStatusParams{
		ID:     id,
		Status: enum.BookingStatusCancelled,
	})
	if err != nil {
		log.Printf("ERROR: cancel booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("booking.cancelled", map[string]string{
			"booking_id": updated.ID.String(),
		})
	}

	writeJSON(w, http.StatusOK, toBookingResponse(updated))
}

// List returns all bookings. Staff and admin only.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.store.ListBookings(r.Context())
	if err != nil {
		log.Printf("ERROR: list bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// ListUnassigned returns open bookings waiting for a staff member.
func (h *BookingHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.store.ListUnassignedBookings(r.Context())
	if err != nil {
		log.Printf("ERROR: list unassigned bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// Schedule returns the authenticated staff member's own bookings.
func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	bookings, err := h.store.ListBookingsByStaff(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list bookings by staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// UpdateStatus moves a booking through its lifecycle. Staff and admin only.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	var req updateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch req.Status {
	case enum.BookingStatusPending, enum.BookingStatusConfirmed,
		enum.BookingStatusCompleted, enum.BookingStatusCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	booking, err := h.store.UpdateBookingStatus(r.Context(), database.UpdateBookingStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: update booking status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("booking.updated", map[string]string{
			"booking_id": booking.ID.String(),
			"status":     booking.Status,
		})
	}

	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// Assign puts a booking on a staff member's schedule and confirms it.
func (h *BookingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking id"})
		return
	}

	var req assignBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff_id"})
		return
	}

	booking, err := h.store.AssignBookingStaff(r.Context(), database.AssignBookingStaffParams{
		ID:      id,
		StaffID: staffID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: assign booking staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastJSON("booking.assigned", map[string]string{
			"booking_id": booking.ID.String(),
			"staff_id":   staffID.String(),
		})
	}

	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func toBookingResponses(bookings []database.Booking) []bookingResponse {
	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	return resp
}

// writeBookingError maps booking service errors onto HTTP statuses.
func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrServiceNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrServiceUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidBookingDate),
		errors.Is(err, service.ErrPastBookingDate):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: create booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
