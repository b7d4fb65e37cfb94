package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FulloMyself/tasselgroup-back/internal/cache"
	"github.com/FulloMyself/tasselgroup-back/internal/config"
	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/FulloMyself/tasselgroup-back/internal/handler"
	"github.com/FulloMyself/tasselgroup-back/internal/mail"
	mw "github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/payfast"
	"github.com/FulloMyself/tasselgroup-back/internal/service"
	"github.com/FulloMyself/tasselgroup-back/internal/ws"
)

// catalogTTL bounds how stale the public catalog responses can get.
const catalogTTL = time.Minute

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, mailer mail.Mailer) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Services
	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	bookings := service.NewBookingService(queries)
	gifts := service.NewGiftService(queries)
	finalize := service.NewFinalizeService(queries, orders, bookings, gifts)
	leave := service.NewLeaveService(queries)

	gateway := &payfast.Client{
		MerchantID:  cfg.PayfastMerchantID,
		MerchantKey: cfg.PayfastMerchantKey,
		Passphrase:  cfg.PayfastPassphrase,
		ProcessURL:  cfg.PayfastProcessURL,
		ReturnURL:   cfg.BackendURL + "/api/payment/success",
		CancelURL:   cfg.BackendURL + "/api/payment/cancel",
		NotifyURL:   cfg.BackendURL + "/api/payment/notify",
	}

	catalogCache := cache.New(catalogTTL)

	// Handlers
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	userHandler := handler.NewUserHandler(queries)
	productHandler := handler.NewProductHandler(queries, catalogCache)
	serviceHandler := handler.NewServiceHandler(queries, catalogCache)
	giftPackageHandler := handler.NewGiftPackageHandler(queries, catalogCache)
	voucherHandler := handler.NewVoucherHandler(queries)
	orderHandler := handler.NewOrderHandler(queries, orders, hub)
	bookingHandler := handler.NewBookingHandler(queries, bookings, hub)
	giftOrderHandler := handler.NewGiftOrderHandler(queries, gifts, hub)
	paymentHandler := handler.NewPaymentHandler(queries, gateway, finalize, mailer, hub, cfg.FrontendURL, cfg.BusinessEmail)
	dashboardHandler := handler.NewDashboardHandler(queries)
	leaveHandler := handler.NewLeaveHandler(queries, leave)

	r.Route("/api", func(api chi.Router) {
		// Public routes
		authHandler.RegisterRoutes(api)
		dashboardHandler.RegisterPublicRoutes(api)
		paymentHandler.RegisterPublicRoutes(api)

		api.Group(func(catalog chi.Router) {
			catalog.Use(catalogCache.Middleware)
			productHandler.RegisterPublicRoutes(catalog)
			serviceHandler.RegisterPublicRoutes(catalog)
			giftPackageHandler.RegisterPublicRoutes(catalog)
		})

		// Authenticated routes
		api.Group(func(authed chi.Router) {
			authed.Use(mw.Authenticate(cfg.JWTSecret))

			userHandler.RegisterRoutes(authed)
			voucherHandler.RegisterRoutes(authed)
			orderHandler.RegisterRoutes(authed)
			bookingHandler.RegisterRoutes(authed)
			giftOrderHandler.RegisterRoutes(authed)
			paymentHandler.RegisterRoutes(authed)

			// Staff and admin
			authed.Group(func(staff chi.Router) {
				staff.Use(mw.RequireRole(enum.RoleStaff, enum.RoleAdmin))

				orderHandler.RegisterStaffRoutes(staff)
				bookingHandler.RegisterStaffRoutes(staff)
				giftOrderHandler.RegisterStaffRoutes(staff)
				voucherHandler.RegisterStaffRoutes(staff)
				leaveHandler.RegisterStaffRoutes(staff)
				dashboardHandler.RegisterStaffRoutes(staff)
				paymentHandler.RegisterStaffRoutes(staff)
			})

			// Admin only
			authed.Group(func(admin chi.Router) {
				admin.Use(mw.RequireRole(enum.RoleAdmin))

				userHandler.RegisterAdminRoutes(admin)
				productHandler.RegisterAdminRoutes(admin)
				serviceHandler.RegisterAdminRoutes(admin)
				giftPackageHandler.RegisterAdminRoutes(admin)
				voucherHandler.RegisterAdminRoutes(admin)
				leaveHandler.RegisterAdminRoutes(admin)
				dashboardHandler.RegisterAdminRoutes(admin)
			})
		})
	})

	// Live activity feed for the staff dashboard
	r.Get("/ws/activity", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	return r
}
