package stats

import (
	"testing"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func pguuid(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func decEq(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	w, _ := decimal.NewFromString(want)
	if !got.Equal(w) {
		t.Errorf("%s: got %v, want %s", label, got, want)
	}
}

func TestComputeAdminStats_RevenueBySource(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	staffID := uuid.New()

	snapshot := Snapshot{
		Now: now,
		Users: []database.User{
			{ID: staffID, Name: "Lerato", Role: enum.RoleStaff},
			{ID: uuid.New(), Name: "Customer A", Role: enum.RoleCustomer},
			{ID: uuid.New(), Name: "Customer B", Role: enum.RoleCustomer},
		},
		Orders: []database.Order{
			{FinalTotal: makeNumeric("300.00"), Status: enum.OrderStatusPending, PaymentStatus: enum.PaymentStatusCompleted, CreatedAt: ts(now)},
			{FinalTotal: makeNumeric("100.00"), Status: enum.OrderStatusCancelled, PaymentStatus: enum.PaymentStatusCompleted, CreatedAt: ts(now)},
			{FinalTotal: makeNumeric("200.00"), Status: enum.OrderStatusConfirmed, PaymentStatus: enum.PaymentStatusRefunded, CreatedAt: ts(now)},
		},
		Bookings: []database.Booking{
			{ServiceID: uuid.New(), StaffID: pguuid(staffID), Price: makeNumeric("450.00"), Status: enum.BookingStatusCompleted, CreatedAt: ts(now)},
			{ServiceID: uuid.New(), Price: makeNumeric("450.00"), Status: enum.BookingStatusPending, CreatedAt: ts(now)},
		},
		GiftOrders: []database.GiftOrder{
			{Price: makeNumeric("750.00"), Status: enum.GiftStatusDelivered, CreatedAt: ts(now)},
			{Price: makeNumeric("750.00"), Status: enum.GiftStatusCancelled, CreatedAt: ts(now)},
		},
	}

	got := ComputeAdminStats(snapshot)

	decEq(t, got.OrderRevenue, "300.00", "order revenue")
	decEq(t, got.BookingRevenue, "450.00", "booking revenue")
	decEq(t, got.GiftRevenue, "750.00", "gift revenue")
	decEq(t, got.TotalRevenue, "1500.00", "total revenue")
	if got.TotalCustomers != 2 {
		t.Errorf("total customers: got %d, want 2", got.TotalCustomers)
	}
	if got.TotalOrders != 3 {
		t.Errorf("total orders: got %d, want 3 (counts include non-revenue orders)", got.TotalOrders)
	}
}

func TestComputeAdminStats_MonthlyWindow(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	snapshot := Snapshot{
		Now: now,
		Orders: []database.Order{
			{FinalTotal: makeNumeric("100.00"), Status: enum.OrderStatusDelivered, PaymentStatus: enum.PaymentStatusCompleted, CreatedAt: ts(now)},
			{FinalTotal: makeNumeric("50.00"), Status: enum.OrderStatusDelivered, PaymentStatus: enum.PaymentStatusCompleted, CreatedAt: ts(now.AddDate(0, -2, 0))},
			// Outside the window entirely.
			{FinalTotal: makeNumeric("999.00"), Status: enum.OrderStatusDelivered, PaymentStatus: enum.PaymentStatusCompleted, CreatedAt: ts(now.AddDate(-1, 0, 0))},
		},
	}

	got := ComputeAdminStats(snapshot)

	if len(got.MonthlyRevenue) != 6 {
		t.Fatalf("months: got %d, want 6", len(got.MonthlyRevenue))
	}
	if got.MonthlyRevenue[0].Month != "Jan 2025" {
		t.Errorf("oldest month: got %s, want Jan 2025", got.MonthlyRevenue[0].Month)
	}
	if got.MonthlyRevenue[5].Month != "Jun 2025" {
		t.Errorf("newest month: got %s, want Jun 2025", got.MonthlyRevenue[5].Month)
	}
	decEq(t, got.MonthlyRevenue[5].Revenue, "100.00", "current month")
	decEq(t, got.MonthlyRevenue[3].Revenue, "50.00", "two months back")
	decEq(t, got.MonthlyRevenue[0].Revenue, "0.00", "empty month")
}

func TestComputeAdminStats_StaffSortedByRevenue(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	alice := uuid.New()
	busi := uuid.New()

	snapshot := Snapshot{
		Now: now,
		Users: []database.User{
			{ID: alice, Name: "Alice", Role: enum.RoleStaff},
			{ID: busi, Name: "Busisiwe", Role: enum.RoleStaff},
		},
		Bookings: []database.Booking{
			{ServiceID: uuid.New(), StaffID: pguuid(alice), Price: makeNumeric("200.00"), Status: enum.BookingStatusCompleted, CreatedAt: ts(now)},
			{ServiceID: uuid.New(), StaffID: pguuid(busi), Price: makeNumeric("500.00"), Status: enum.BookingStatusCompleted, CreatedAt: ts(now)},
		},
	}

	got := ComputeAdminStats(snapshot)

	if len(got.Staff) != 2 {
		t.Fatalf("staff entries: got %d, want 2", len(got.Staff))
	}
	if got.Staff[0].Name != "Busisiwe" {
		t.Errorf("top performer: got %s, want Busisiwe", got.Staff[0].Name)
	}
	decEq(t, got.Staff[0].Revenue, "500.00", "top staff revenue")
}

func TestComputeAdminStats_PopularServicesTopFive(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	var bookings []database.Booking
	var services []database.Service
	for i := 0; i < 7; i++ {
		id := uuid.New()
		services = append(services, database.Service{ID: id, Name: string(rune('A' + i))})
		// Service i gets i+1 bookings.
		for j := 0; j <= i; j++ {
			bookings = append(bookings, database.Booking{
				ServiceID: id,
				Price:     makeNumeric("100.00"),
				Status:    enum.BookingStatusCompleted,
				CreatedAt: ts(now),
			})
		}
	}

	got := ComputeAdminStats(Snapshot{Now: now, Services: services, Bookings: bookings})

	if len(got.PopularServices) != 5 {
		t.Fatalf("popular services: got %d, want 5", len(got.PopularServices))
	}
	if got.PopularServices[0].Bookings != 7 {
		t.Errorf("top service bookings: got %d, want 7", got.PopularServices[0].Bookings)
	}
	if got.PopularServices[4].Bookings != 3 {
		t.Errorf("fifth service bookings: got %d, want 3", got.PopularServices[4].Bookings)
	}
}

func TestComputeStaffStats(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	staffID := uuid.New()
	clientA := uuid.New()
	clientB := uuid.New()

	snapshot := Snapshot{
		Now: now,
		Bookings: []database.Booking{
			{UserID: clientA, StaffID: pguuid(staffID), ServiceID: uuid.New(), Price: makeNumeric("400.00"),
				DurationMinutes: 90, Status: enum.BookingStatusCompleted, ScheduledAt: ts(now.AddDate(0, 0, -3)), CreatedAt: ts(now)},
			{UserID: clientA, StaffID: pguuid(staffID), ServiceID: uuid.New(), Price: makeNumeric("200.00"),
				DurationMinutes: 30, Status: enum.BookingStatusConfirmed, ScheduledAt: ts(now.AddDate(0, 0, 2)), CreatedAt: ts(now)},
			// Another staff member's booking must not leak in.
			{UserID: clientB, StaffID: pguuid(uuid.New()), ServiceID: uuid.New(), Price: makeNumeric("999.00"),
				DurationMinutes: 60, Status: enum.BookingStatusCompleted, ScheduledAt: ts(now), CreatedAt: ts(now)},
		},
		GiftOrders: []database.GiftOrder{
			{UserID: clientB, AssignedStaff: pguuid(staffID), Price: makeNumeric("600.00"),
				Status: enum.GiftStatusDelivered, CreatedAt: ts(now)},
		},
	}

	got := ComputeStaffStats(snapshot, staffID)

	if got.SalesCount != 3 {
		t.Errorf("sales count: got %d, want 3", got.SalesCount)
	}
	decEq(t, got.Revenue, "1200.00", "staff revenue")
	decEq(t, got.Commission, "180.00", "commission at 15%")
	if got.UniqueClients != 2 {
		t.Errorf("unique clients: got %d, want 2", got.UniqueClients)
	}
	decEq(t, got.HoursWorked, "1.5", "hours from completed bookings only")
	if len(got.UpcomingBookings) != 1 {
		t.Errorf("upcoming bookings: got %d, want 1", len(got.UpcomingBookings))
	}
}

func TestComputeStaffStats_ZeroActivity(t *testing.T) {
	got := ComputeStaffStats(Snapshot{Now: time.Now()}, uuid.New())

	if got.SalesCount != 0 || got.UniqueClients != 0 {
		t.Error("expected empty stats for unknown staff")
	}
	decEq(t, got.Revenue, "0", "revenue")
	decEq(t, got.Commission, "0", "commission")
}

func TestComputePublicStats(t *testing.T) {
	got := ComputePublicStats(Snapshot{
		Users: []database.User{
			{Role: enum.RoleCustomer},
			{Role: enum.RoleCustomer},
			{Role: enum.RoleStaff},
		},
		Bookings: []database.Booking{
			{Status: enum.BookingStatusCompleted},
			{Status: enum.BookingStatusPending},
		},
		Services: []database.Service{
			{Available: true},
			{Available: false},
		},
	})

	if got.HappyClients != 2 {
		t.Errorf("happy clients: got %d, want 2", got.HappyClients)
	}
	if got.CompletedBookings != 1 {
		t.Errorf("completed bookings: got %d, want 1", got.CompletedBookings)
	}
	if got.ServicesOffered != 1 {
		t.Errorf("services offered: got %d, want 1", got.ServicesOffered)
	}
}
