package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/cache"
	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/handler"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Mock ServiceStore ---

type mockServiceStore struct {
	createServiceFn func(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	getServiceFn    func(ctx context.Context, id uuid.UUID) (database.Service, error)
	listServicesFn  func(ctx context.Context) ([]database.Service, error)
	updateServiceFn func(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error)
	deleteServiceFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockServiceStore) CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error) {
	if m.createServiceFn != nil {
		return m.createServiceFn(ctx, arg)
	}
	return database.Service{}, pgx.ErrNoRows
}

func (m *mockServiceStore) GetService(ctx context.Context, id uuid.UUID) (database.Service, error) {
	if m.getServiceFn != nil {
		return m.getServiceFn(ctx, id)
	}
	return database.Service{}, pgx.ErrNoRows
}

func (m *mockServiceStore) ListServices(ctx context.Context) ([]database.Service, error) {
	if m.listServicesFn != nil {
		return m.listServicesFn(ctx)
	}
	return []database.Service{}, nil
}

func (m *mockServiceStore) UpdateService(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error) {
	if m.updateServiceFn != nil {
		return m.updateServiceFn(ctx, arg)
	}
	return database.Service{}, pgx.ErrNoRows
}

func (m *mockServiceStore) DeleteService(ctx context.Context, id uuid.UUID) error {
	if m.deleteServiceFn != nil {
		return m.deleteServiceFn(ctx, id)
	}
	return nil
}

func setupServiceRouter(store *mockServiceStore, c *cache.Cache) chi.Router {
	h := handler.NewServiceHandler(store, c)
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		api.Group(func(catalog chi.Router) {
			catalog.Use(c.Middleware)
			h.RegisterPublicRoutes(catalog)
		})
		api.Group(func(admin chi.Router) {
			admin.Use(middleware.Authenticate(testJWTSecret))
			h.RegisterAdminRoutes(admin)
		})
	})
	return r
}

func TestServiceUpdateRefreshesCachedItem(t *testing.T) {
	svc := database.Service{
		ID:              uuid.New(),
		Name:            "Deep Tissue Massage",
		Price:           testNumeric(t, "450.00"),
		DurationMinutes: 60,
		Available:       true,
	}
	store := &mockServiceStore{
		getServiceFn: func(ctx context.Context, id uuid.UUID) (database.Service, error) {
			if id != svc.ID {
				return database.Service{}, pgx.ErrNoRows
			}
			return svc, nil
		},
		updateServiceFn: func(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error) {
			svc.Name = arg.Name
			svc.Price = arg.Price
			return svc, nil
		},
	}

	router := setupServiceRouter(store, cache.New(time.Minute))
	path := "/api/services/" + svc.ID.String()

	rr := doAuthRequest(t, router, "GET", path, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeBody(t, rr); resp["price"] != "450.00" {
		t.Fatalf("price: got %v", resp["price"])
	}

	rr = doAuthRequest(t, router, "PUT", path, map[string]interface{}{
		"name":             "Deep Tissue Massage",
		"price":            "520.00",
		"duration_minutes": 60,
	}, adminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("update status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	// A repriced treatment must not keep serving the old cached price.
	rr = doAuthRequest(t, router, "GET", path, nil, nil)
	if resp := decodeBody(t, rr); resp["price"] != "520.00" {
		t.Errorf("price after update: got %v, want 520.00", resp["price"])
	}
}
