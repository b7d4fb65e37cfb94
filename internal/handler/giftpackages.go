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

// GiftPackageStore defines the database methods needed by gift package handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type GiftPackageStore interface {
	CreateGiftPackage(ctx context.Context, arg database.CreateGiftPackageParams) (database.GiftPackage, error)
	GetGiftPackage(ctx context.Context, id uuid.UUID) (database.GiftPackage, error)
	ListGiftPackages(ctx context.Context) ([]database.GiftPackage, error)
	UpdateGiftPackage(ctx context.Context, arg database.UpdateGiftPackageParams) (database.GiftPackage, error)
	DeleteGiftPackage(ctx context.Context, id uuid.UUID) error
}

// GiftPackageHandler handles the gift package catalog.
type GiftPackageHandler struct {
	store GiftPackageStore
	cache *cache.Cache
}

// NewGiftPackageHandler creates a new GiftPackageHandler.
func NewGiftPackageHandler(store GiftPackageStore, c *cache.Cache) *GiftPackageHandler {
	return &GiftPackageHandler{store: store, cache: c}
}

// RegisterPublicRoutes registers the unauthenticated catalog endpoints.
func (h *GiftPackageHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/gift-packages", h.List)
	r.Get("/gift-packages/{id}", h.Get)
}

// RegisterAdminRoutes registers catalog management endpoints for admins.
func (h *GiftPackageHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/gift-packages", h.Create)
	r.Put("/gift-packages/{id}", h.Update)
	r.Delete("/gift-packages/{id}", h.Delete)
}

type giftPackageRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        string   `json:"price"`
	Includes     []string `json:"includes"`
	Customizable bool     `json:"customizable"`
	Available    *bool    `json:"available"`
}

// invalidateCatalog drops the cached catalog responses a write can dirty.
func (h *GiftPackageHandler) invalidateCatalog(ids ...uuid.UUID) {
	if h.cache == nil {
		return
	}
	keys := []string{"/api/gift-packages"}
	for _, id := range ids {
		keys = append(keys, "/api/gift-packages/"+id.String())
	}
	h.cache.Invalidate(keys...)
}

// List returns all gift packages.
func (h *GiftPackageHandler) List(w http.ResponseWriter, r *http.Request) {
	packages, err := h.store.ListGiftPackages(r.Context())
	if err != nil {
		log.Printf("ERROR: list gift packages: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]giftPackageResponse, 0, len(packages))
	for _, g := range packages {
		resp = append(resp, toGiftPackageResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one gift package.
func (h *GiftPackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gift package id"})
		return
	}

	pkg, err := h.store.GetGiftPackage(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "gift package not found"})
			return
		}
		log.Printf("ERROR: get gift package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toGiftPackageResponse(pkg))
}

// Create adds a gift package. Admin only.
func (h *GiftPackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeGiftPackageRequest(w, r)
	if !ok {
		return
	}

	pkg, err := h.store.CreateGiftPackage(r.Context(), database.CreateGiftPackageParams{
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		Includes:     params.Includes,
		Customizable: params.Customizable,
		Available:    params.Available,
	})
	if err != nil {
		log.Printf("ERROR: create gift package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(pkg.ID)
	writeJSON(w, http.StatusCreated, toGiftPackageResponse(pkg))
}

// Update edits a gift package. Admin only.
func (h *GiftPackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gift package id"})
		return
	}

	params, ok := h.decodeGiftPackageRequest(w, r)
	if !ok {
		return
	}
	params.ID = id

	pkg, err := h.store.UpdateGiftPackage(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "gift package not found"})
			return
		}
		log.Printf("ERROR: update gift package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(id)
	writeJSON(w, http.StatusOK, toGiftPackageResponse(pkg))
}

// Delete removes a gift package. Admin only.
func (h *GiftPackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gift package id"})
		return
	}

	if err := h.store.DeleteGiftPackage(r.Context(), id); err != nil {
		log.Printf("ERROR: delete gift package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "gift package deleted"})
}

func (h *GiftPackageHandler) decodeGiftPackageRequest(w http.ResponseWriter, r *http.Request) (database.UpdateGiftPackageParams, bool) {
	var req giftPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return database.UpdateGiftPackageParams{}, false
	}
	if req.Name == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and price are required"})
		return database.UpdateGiftPackageParams{}, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return database.UpdateGiftPackageParams{}, false
	}

	var priceNumeric pgtype.Numeric
	_ = priceNumeric.Scan(price.StringFixed(2))

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	return database.UpdateGiftPackageParams{
		Name:         req.Name,
		Description:  description,
		Price:        priceNumeric,
		Includes:     req.Includes,
		Customizable: req.Customizable,
		Available:    available,
	}, true
}
