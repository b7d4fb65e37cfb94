package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// LeaveStore defines the database methods needed by leave handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LeaveStore interface {
	ListLeaveRequests(ctx context.Context) ([]database.LeaveRequest, error)
	ListLeaveRequestsByUser(ctx context.Context, userID uuid.UUID) ([]database.LeaveRequest, error)
}

// LeaveServicer handles leave workflows. Satisfied by *service.LeaveService.
type LeaveServicer interface {
	Apply(ctx context.Context, req service.ApplyLeaveRequest) (database.LeaveRequest, error)
	Review(ctx context.Context, id, reviewerID uuid.UUID, approve bool) (database.LeaveRequest, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (database.LeaveRequest, error)
	Stats(ctx context.Context, userID uuid.UUID, year int) (service.YearStats, error)
}

// LeaveHandler handles staff leave endpoints.
type LeaveHandler struct {
	store LeaveStore
	leave LeaveServicer
}

// NewLeaveHandler creates a new LeaveHandler.
func NewLeaveHandler(store LeaveStore, leave LeaveServicer) *LeaveHandler {
	return &LeaveHandler{store: store, leave: leave}
}

// RegisterStaffRoutes registers leave endpoints for staff members.
func (h *LeaveHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/leave", h.Apply)
	r.Get("/leave/mine", h.Mine)
	r.Get("/leave/stats", h.Stats)
	r.Post("/leave/{id}/cancel", h.Cancel)
}

// RegisterAdminRoutes registers leave review endpoints for admins.
func (h *LeaveHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/leave", h.List)
	r.Put("/leave/{id}/review", h.Review)
}

type applyLeaveRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type reviewLeaveRequest struct {
	Approve bool `json:"approve"`
}

// Apply submits a leave request for the authenticated staff member.
func (h *LeaveHandler) Apply(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req applyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	request, err := h.leave.Apply(r.Context(), service.ApplyLeaveRequest{
		UserID:    claims.UserID,
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeLeaveError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveResponse(request))
}

// Mine returns the authenticated user's leave requests.
func (h *LeaveHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	requests, err := h.store.ListLeaveRequestsByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list leave requests by user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponses(requests))
}

// Stats returns the authenticated user's leave summary for a year. The year
// query parameter defaults to the current year.
func (h *LeaveHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = parsed
	}

	stats, err := h.leave.Stats(r.Context(), claims.UserID, year)
	if err != nil {
		log.Printf("ERROR: leave stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Year     int              `json:"year"`
		Taken    map[string]int32 `json:"taken"`
		Pending  map[string]int32 `json:"pending"`
		Balances map[string]int32 `json:"balances"`
	}{
		Year:     stats.Year,
		Taken:    stats.Taken,
		Pending:  stats.Pending,
		Balances: stats.Balances,
	})
}

// Cancel withdraws the authenticated user's own pending leave request.
func (h *LeaveHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid leave request id"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())

	request, err := h.leave.Cancel(r.Context(), id, claims.UserID)
	if err != nil {
		h.writeLeaveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveResponse(request))
}

// List returns all leave requests. Admin only.
func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListLeaveRequests(r.Context())
	if err != nil {
		log.Printf("ERROR: list leave requests: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponses(requests))
}

// Review approves or rejects a pending leave request. Admin only.
func (h *LeaveHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid leave request id"})
		return
	}

	var req reviewLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())

	request, err := h.leave.Review(r.Context(), id, claims.UserID, req.Approve)
	if err != nil {
		h.writeLeaveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveResponse(request))
}

func toLeaveResponses(requests []database.LeaveRequest) []leaveResponse {
	resp := make([]leaveResponse, 0, len(requests))
	for _, l := range requests {
		resp = append(resp, toLeaveResponse(l))
	}
	return resp
}

// writeLeaveError maps leave service errors onto HTTP statuses.
func (h *LeaveHandler) writeLeaveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrLeaveNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotLeaveOwner):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrLeaveNotPending),
		errors.Is(err, service.ErrInsufficientBalance):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidLeaveType),
		errors.Is(err, service.ErrInvalidLeaveRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		// Date parse failures come back wrapped.
		if isBadInput(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: leave request: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isBadInput(err error) bool {
	var parseErr *time.ParseError
	return errors.As(err, &parseErr)
}
