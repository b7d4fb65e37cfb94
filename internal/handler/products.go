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

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]database.Product, error)
	SearchProducts(ctx context.Context, query string) ([]database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductHandler handles the product catalog.
type ProductHandler struct {
	store ProductStore
	cache *cache.Cache
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, c *cache.Cache) *ProductHandler {
	return &ProductHandler{store: store, cache: c}
}

// RegisterPublicRoutes registers the unauthenticated catalog endpoints.
func (h *ProductHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Get("/products/category/{category}", h.ListByCategory)
	r.Get("/products/search/{query}", h.Search)
}

// RegisterAdminRoutes registers catalog management endpoints for admins.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
}

type productRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	Category      string   `json:"category"`
	ImageURL      string   `json:"image_url"`
	Tags          []string `json:"tags"`
	StockQuantity int32    `json:"stock_quantity"`
}

// invalidateCatalog drops the cached responses a write can dirty. Category
// and search listings have an unbounded key space and ride out the TTL.
func (h *ProductHandler) invalidateCatalog(ids ...uuid.UUID) {
	if h.cache == nil {
		return
	}
	keys := []string{"/api/products"}
	for _, id := range ids {
		keys = append(keys, "/api/products/"+id.String())
	}
	h.cache.Invalidate(keys...)
}

// List returns the whole product catalog.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// Get returns one product.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// ListByCategory filters the catalog by category.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.store.ListProductsByCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: list products by category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// Search matches products by name, description or tag.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	products, err := h.store.SearchProducts(r.Context(), query)
	if err != nil {
		log.Printf("ERROR: search products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// Create adds a product to the catalog. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:          params.Name,
		Description:   params.Description,
		Price:         params.Price,
		Category:      params.Category,
		ImageUrl:      params.ImageUrl,
		Tags:          params.Tags,
		StockQuantity: params.StockQuantity,
	})
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(product.ID)
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update edits a product. Admin only.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	params, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}
	params.ID = id

	product, err := h.store.UpdateProduct(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(id)
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product. Admin only.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		log.Printf("ERROR: delete product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidateCatalog(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (database.UpdateProductParams, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return database.UpdateProductParams{}, false
	}
	if req.Name == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and price are required"})
		return database.UpdateProductParams{}, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return database.UpdateProductParams{}, false
	}
	if req.StockQuantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock_quantity must not be negative"})
		return database.UpdateProductParams{}, false
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
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	return database.UpdateProductParams{
		Name:          req.Name,
		Description:   description,
		Price:         priceNumeric,
		Category:      category,
		ImageUrl:      imageURL,
		Tags:          req.Tags,
		StockQuantity: req.StockQuantity,
	}, true
}

func toProductResponses(products []database.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}
