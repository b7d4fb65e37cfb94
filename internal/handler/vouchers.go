package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// VoucherStore defines the database methods needed by voucher handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type VoucherStore interface {
	CreateVoucher(ctx context.Context, arg database.CreateVoucherParams) (database.Voucher, error)
	GetVoucher(ctx context.Context, id uuid.UUID) (database.Voucher, error)
	GetVoucherByCode(ctx context.Context, code string) (database.Voucher, error)
	ListVouchers(ctx context.Context) ([]database.Voucher, error)
	ListVouchersByAssignee(ctx context.Context, staffID uuid.UUID) ([]database.Voucher, error)
	UpdateVoucher(ctx context.Context, arg database.UpdateVoucherParams) (database.Voucher, error)
	DeleteVoucher(ctx context.Context, id uuid.UUID) error
}

// VoucherHandler handles discount voucher management and validation.
type VoucherHandler struct {
	store VoucherStore
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(store VoucherStore) *VoucherHandler {
	return &VoucherHandler{store: store}
}

// RegisterRoutes registers voucher endpoints for authenticated users.
func (h *VoucherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/vouchers/validate/{code}", h.Validate)
}

// RegisterStaffRoutes registers voucher endpoints for staff.
func (h *VoucherHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/vouchers/mine", h.Mine)
}

// RegisterAdminRoutes registers voucher management endpoints for admins.
func (h *VoucherHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/vouchers", h.List)
	r.Post("/vouchers", h.Create)
	r.Put("/vouchers/{id}", h.Update)
	r.Delete("/vouchers/{id}", h.Delete)
}

type voucherRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	MaxUses     int32  `json:"max_uses"`
	IsActive    *bool  `json:"is_active"`
	AssignedTo  string `json:"assigned_to"`
	ExpiresAt   string `json:"expires_at"`
}

// Validate checks whether a voucher code can currently be redeemed.
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "voucher code is required"})
		return
	}

	voucher, err := h.store.GetVoucherByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: get voucher by code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	valid := database.VoucherRedeemable(voucher, time.Now())

	writeJSON(w, http.StatusOK, struct {
		Valid   bool            `json:"valid"`
		Voucher voucherResponse `json:"voucher"`
	}{
		Valid:   valid,
		Voucher: toVoucherResponse(voucher),
	})
}

// Mine returns the vouchers assigned to the authenticated staff member.
func (h *VoucherHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	vouchers, err := h.store.ListVouchersByAssignee(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list vouchers by assignee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVoucherResponses(vouchers))
}

// List returns all vouchers. Admin only.
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.store.ListVouchers(r.Context())
	if err != nil {
		log.Printf("ERROR: list vouchers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVoucherResponses(vouchers))
}

// Create mints a new voucher code. Admin only.
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	fields, ok := h.decodeVoucherFields(w, req)
	if !ok {
		return
	}

	voucher, err := h.store.CreateVoucher(r.Context(), database.CreateVoucherParams{
		Code:        req.Code,
		Description: fields.Description,
		Type:        fields.Type,
		Value:       fields.Value,
		MaxUses:     fields.MaxUses,
		AssignedTo:  fields.AssignedTo,
		ExpiresAt:   fields.ExpiresAt,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: create voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toVoucherResponse(voucher))
}

// Update edits a voucher. The code itself is immutable. Admin only.
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher id"})
		return
	}

	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fields, ok := h.decodeVoucherFields(w, req)
	if !ok {
		return
	}
	fields.ID = id

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	fields.IsActive = isActive

	voucher, err := h.store.UpdateVoucher(r.Context(), fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: update voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toVoucherResponse(voucher))
}

// Delete removes a voucher. Admin only.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher id"})
		return
	}

	if err := h.store.DeleteVoucher(r.Context(), id); err != nil {
		log.Printf("ERROR: delete voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "voucher deleted"})
}

func (h *VoucherHandler) decodeVoucherFields(w http.ResponseWriter, req voucherRequest) (database.UpdateVoucherParams, bool) {
	switch req.Type {
	case enum.VoucherTypePercentage, enum.VoucherTypeFixed:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be percentage or fixed"})
		return database.UpdateVoucherParams{}, false
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value must be a positive number"})
		return database.UpdateVoucherParams{}, false
	}
	if req.Type == enum.VoucherTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "percentage value cannot exceed 100"})
		return database.UpdateVoucherParams{}, false
	}
	if req.MaxUses <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_uses must be positive"})
		return database.UpdateVoucherParams{}, false
	}

	var valueNumeric pgtype.Numeric
	_ = valueNumeric.Scan(value.StringFixed(2))

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	assignedTo := pgtype.UUID{}
	if req.AssignedTo != "" {
		sid, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assigned_to"})
			return database.UpdateVoucherParams{}, false
		}
		assignedTo = pgtype.UUID{Bytes: sid, Valid: true}
	}

	expiresAt := pgtype.Timestamptz{}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expires_at must be RFC3339"})
			return database.UpdateVoucherParams{}, false
		}
		expiresAt = pgtype.Timestamptz{Time: t, Valid: true}
	}

	return database.UpdateVoucherParams{
		Description: description,
		Type:        req.Type,
		Value:       valueNumeric,
		MaxUses:     req.MaxUses,
		AssignedTo:  assignedTo,
		ExpiresAt:   expiresAt,
	}, true
}

func toVoucherResponses(vouchers []database.Voucher) []voucherResponse {
	resp := make([]voucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		resp = append(resp, toVoucherResponse(v))
	}
	return resp
}
