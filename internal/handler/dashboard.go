package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/middleware"
	"github.com/FulloMyself/tasselgroup-back/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DashboardStore defines the database methods needed to assemble dashboards.
// Satisfied by *database.Queries; narrow interface for testability.
type DashboardStore interface {
	ListOrders(ctx context.Context) ([]database.Order, error)
	ListBookings(ctx context.Context) ([]database.Booking, error)
	ListGiftOrders(ctx context.Context) ([]database.GiftOrder, error)
	ListUsers(ctx context.Context) ([]database.User, error)
	ListServices(ctx context.Context) ([]database.Service, error)
	ListVouchersByAssignee(ctx context.Context, staffID uuid.UUID) ([]database.Voucher, error)
}

// DashboardHandler serves the aggregated revenue and activity views.
type DashboardHandler struct {
	store DashboardStore
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// RegisterPublicRoutes registers the unauthenticated marketing counters.
func (h *DashboardHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/stats/public", h.Public)
}

// RegisterStaffRoutes registers the staff member's personal dashboard.
func (h *DashboardHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/dashboard/staff", h.Staff)
}

// RegisterAdminRoutes registers the business-wide dashboard.
func (h *DashboardHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard/admin", h.Admin)
}

type monthlyRevenueResponse struct {
	Month   string `json:"month"`
	Revenue string `json:"revenue"`
}

type staffPerformanceResponse struct {
	StaffID    uuid.UUID `json:"staff_id"`
	Name       string    `json:"name"`
	Revenue    string    `json:"revenue"`
	Bookings   int       `json:"bookings"`
	Orders     int       `json:"orders"`
	GiftOrders int       `json:"gift_orders"`
}

type servicePopularityResponse struct {
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
	Bookings  int       `json:"bookings"`
	Revenue   string    `json:"revenue"`
}

type adminDashboardResponse struct {
	TotalRevenue    string                      `json:"total_revenue"`
	OrderRevenue    string                      `json:"order_revenue"`
	BookingRevenue  string                      `json:"booking_revenue"`
	GiftRevenue     string                      `json:"gift_revenue"`
	TotalOrders     int                         `json:"total_orders"`
	TotalBookings   int                         `json:"total_bookings"`
	TotalGiftOrders int                         `json:"total_gift_orders"`
	TotalCustomers  int                         `json:"total_customers"`
	MonthlyRevenue  []monthlyRevenueResponse    `json:"monthly_revenue"`
	Staff           []staffPerformanceResponse  `json:"staff"`
	PopularServices []servicePopularityResponse `json:"popular_services"`
}

type staffDashboardResponse struct {
	SalesCount       int               `json:"sales_count"`
	Revenue          string            `json:"revenue"`
	Commission       string            `json:"commission"`
	UniqueClients    int               `json:"unique_clients"`
	HoursWorked      string            `json:"hours_worked"`
	UpcomingBookings []bookingResponse `json:"upcoming_bookings"`
	RecentBookings   []bookingResponse `json:"recent_bookings"`
	Vouchers         []voucherResponse `json:"vouchers"`
}

type publicStatsResponse struct {
	HappyClients      int `json:"happy_clients"`
	CompletedBookings int `json:"completed_bookings"`
	ServicesOffered   int `json:"services_offered"`
}

// Admin returns the business-wide dashboard. Admin only.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(r.Context())
	if err != nil {
		log.Printf("ERROR: load dashboard snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s := stats.ComputeAdminStats(snapshot)

	resp := adminDashboardResponse{
		TotalRevenue:    s.TotalRevenue.StringFixed(2),
		OrderRevenue:    s.OrderRevenue.StringFixed(2),
		BookingRevenue:  s.BookingRevenue.StringFixed(2),
		GiftRevenue:     s.GiftRevenue.StringFixed(2),
		TotalOrders:     s.TotalOrders,
		TotalBookings:   s.TotalBookings,
		TotalGiftOrders: s.TotalGiftOrders,
		TotalCustomers:  s.TotalCustomers,
		MonthlyRevenue:  make([]monthlyRevenueResponse, 0, len(s.MonthlyRevenue)),
		Staff:           make([]staffPerformanceResponse, 0, len(s.Staff)),
		PopularServices: make([]servicePopularityResponse, 0, len(s.PopularServices)),
	}
	for _, m := range s.MonthlyRevenue {
		resp.MonthlyRevenue = append(resp.MonthlyRevenue, monthlyRevenueResponse{
			Month:   m.Month,
			Revenue: m.Revenue.StringFixed(2),
		})
	}
	for _, p := range s.Staff {
		resp.Staff = append(resp.Staff, staffPerformanceResponse{
			StaffID:    p.StaffID,
			Name:       p.Name,
			Revenue:    p.Revenue.StringFixed(2),
			Bookings:   p.Bookings,
			Orders:     p.Orders,
			GiftOrders: p.GiftOrders,
		})
	}
	for _, sp := range s.PopularServices {
		resp.PopularServices = append(resp.PopularServices, servicePopularityResponse{
			ServiceID: sp.ServiceID,
			Name:      sp.Name,
			Bookings:  sp.Bookings,
			Revenue:   sp.Revenue.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Staff returns the authenticated staff member's personal dashboard.
func (h *DashboardHandler) Staff(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	snapshot, err := h.snapshot(r.Context())
	if err != nil {
		log.Printf("ERROR: load dashboard snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s := stats.ComputeStaffStats(snapshot, claims.UserID)

	vouchers, err := h.store.ListVouchersByAssignee(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list vouchers by assignee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := staffDashboardResponse{
		SalesCount:       s.SalesCount,
		Revenue:          s.Revenue.StringFixed(2),
		Commission:       s.Commission.StringFixed(2),
		UniqueClients:    s.UniqueClients,
		HoursWorked:      s.HoursWorked.StringFixed(2),
		UpcomingBookings: toBookingResponses(s.UpcomingBookings),
		RecentBookings:   toBookingResponses(s.RecentBookings),
		Vouchers:         toVoucherResponses(vouchers),
	}
	writeJSON(w, http.StatusOK, resp)
}

// Public returns the marketing counters shown on the landing page.
func (h *DashboardHandler) Public(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(r.Context())
	if err != nil {
		log.Printf("ERROR: load dashboard snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s := stats.ComputePublicStats(snapshot)

	writeJSON(w, http.StatusOK, publicStatsResponse{
		HappyClients:      s.HappyClients,
		CompletedBookings: s.CompletedBookings,
		ServicesOffered:   s.ServicesOffered,
	})
}

func (h *DashboardHandler) snapshot(ctx context.Context) (stats.Snapshot, error) {
	orders, err := h.store.ListOrders(ctx)
	if err != nil {
		return stats.Snapshot{}, err
	}
	bookings, err := h.store.ListBookings(ctx)
	if err != nil {
		return stats.Snapshot{}, err
	}
	gifts, err := h.store.ListGiftOrders(ctx)
	if err != nil {
		return stats.Snapshot{}, err
	}
	users, err := h.store.ListUsers(ctx)
	if err != nil {
		return stats.Snapshot{}, err
	}
	services, err := h.store.ListServices(ctx)
	if err != nil {
		return stats.Snapshot{}, err
	}
	return stats.Snapshot{
		Orders:     orders,
		Bookings:   bookings,
		GiftOrders: gifts,
		Users:      users,
		Services:   services,
	}, nil
}
