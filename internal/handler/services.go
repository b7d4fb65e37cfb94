package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/FulloMyself/tasselgroup-back/internal/cache"
	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ServiceStore defines the database methods needed by service handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ServiceStore interface {
	CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	ListServices(ctx context.Context) ([]database.Service, error)
	UpdateService(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

// ServiceHandler handles the treatment and service menu.
type ServiceHandler struct {
	store ServiceStore
	cache *cache.Cache
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(store ServiceStore, c *cache.Cache) *ServiceHandler {
	return &ServiceHandler{store: store, cache: c}
}

// RegisterPublicRoutes registers the unauthenticated menu endpoints.
func (h *ServiceHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/services", h.List)
	r.Get("/services/{id}", h.Get)
}

// RegisterAdminRoutes registers menu management endpoints for admins.
func (h *ServiceHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/services", h.Create)
	r.Put("/services/{id}", h.Update)
	r.Delete("/services/{id}", h.Delete)
}

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	DurationMinutes int32  `json:"duration_minutes"`
	Category        string `json:"category"`
	Available       *bool  `json:"available"`
}

// invalidateMenu drops the cached menu responses a write can dirty.
func (h *ServiceHandler) invalidateMenu(ids ...uuid.UUID) {
	if h.cache == nil {
		return
	}
	keys := []string{"/api/services"}
	for _, id := range ids {
		keys = append(keys, "/api/services/"+id.String())
	}
	h.cache.Invalidate(keys...)
}

// List returns the full service menu.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		log.Printf("ERROR: list services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, toServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one service.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service id"})
		return
	}

	service, err := h.store.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(service))
}

// Create adds a service to the menu. Admin only.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeServiceRequest(w, r)
	if !ok {
		return
	}

	service, err := h.store.CreateService(r.Context(), database.CreateServiceParams{
		Name:            params.Name,
		Description:     params.Description,
		Price:           params.Price,
		DurationMinutes: params.DurationMinutes,
		Category:        params.Category,
		Available:       params.Available,
	})
	if err != nil {
		log.Printf("ERROR: create service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateMenu(service.ID)
	writeJSON(w, http.StatusCreated, toServiceResponse(service))
}

// Update edits a service. Admin only.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service id"})
		return
	}

	params, ok := h.decodeServiceRequest(w, r)
	if !ok {
		return
	}
	params.ID = id

	service, err := h.store.UpdateService(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: update service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateMenu(id)
	writeJSON(w, http.StatusOK, toServiceResponse(service))
}

// Delete removes a service. Admin only.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service id"})
		return
	}

	if err := h.store.DeleteService(r.Context(), id); err != nil {
		log.Printf("ERROR: delete service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateMenu(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "service deleted"})
}

func (h *ServiceHandler) decodeServiceRequest(w http.ResponseWriter, r *http.Request) (database.UpdateServiceParams, bool) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return database.UpdateServiceParams{}, false
	}
	if req.Name == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and price are required"})
		return database.UpdateServiceParams{}, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return database.UpdateServiceParams{}, false
	}
	if req.DurationMinutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_minutes must be positive"})
		return database.UpdateServiceParams{}, false
	}

	var priceNumeric pgtype.Numeric
	_ = priceNumeric.Scan(price.StringFixed(2))

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}
	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	return database.UpdateServiceParams{
		Name:            req.Name,
		Description:     description,
		Price:           priceNumeric,
		DurationMinutes: req.DurationMinutes,
		Category:        category,
		Available:       available,
	}, true
}
