package stats

import (
	"sort"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Staff earn commission on the bookings they deliver.
var commissionRate = decimal.NewFromFloat(0.15)

const monthlyWindow = 6

// Snapshot is the point-in-time data the aggregations run over. The
// functions in this package never touch the database or mutate the snapshot.
type Snapshot struct {
	Orders     []database.Order
	Bookings   []database.Booking
	GiftOrders []database.GiftOrder
	Users      []database.User
	Services   []database.Service
	Vouchers   []database.Voucher
	Now        time.Time
}

type MonthlyRevenue struct {
	Month   string
	Revenue decimal.Decimal
}

type StaffPerformance struct {
	StaffID    uuid.UUID
	Name       string
	Revenue    decimal.Decimal
	Bookings   int
	Orders     int
	GiftOrders int
}

type ServicePopularity struct {
	ServiceID uuid.UUID
	Name      string
	Bookings  int
	Revenue   decimal.Decimal
}

type AdminStats struct {
	TotalRevenue    decimal.Decimal
	OrderRevenue    decimal.Decimal
	BookingRevenue  decimal.Decimal
	GiftRevenue     decimal.Decimal
	TotalOrders     int
	TotalBookings   int
	TotalGiftOrders int
	TotalCustomers  int
	MonthlyRevenue  []MonthlyRevenue
	Staff           []StaffPerformance
	PopularServices []ServicePopularity
}

type StaffStats struct {
	SalesCount       int
	Revenue          decimal.Decimal
	Commission       decimal.Decimal
	UniqueClients    int
	HoursWorked      decimal.Decimal
	UpcomingBookings []database.Booking
	RecentBookings   []database.Booking
}

type PublicStats struct {
	HappyClients      int
	CompletedBookings int
	ServicesOffered   int
}

// ComputeAdminStats aggregates revenue and activity across all sources.
func ComputeAdminStats(s Snapshot) AdminStats {
	out := AdminStats{
		TotalRevenue:   decimal.Zero,
		OrderRevenue:   decimal.Zero,
		BookingRevenue: decimal.Zero,
		GiftRevenue:    decimal.Zero,
	}

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Trailing months, oldest first.
	months := make([]MonthlyRevenue, 0, monthlyWindow)
	monthIndex := make(map[string]int, monthlyWindow)
	for i := monthlyWindow - 1; i >= 0; i-- {
		m := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		label := m.Format("Jan 2006")
		monthIndex[label] = len(months)
		months = append(months, MonthlyRevenue{Month: label, Revenue: decimal.Zero})
	}
	addMonthly := func(at pgtype.Timestamptz, amount decimal.Decimal) {
		if !at.Valid {
			return
		}
		if idx, ok := monthIndex[at.Time.Format("Jan 2006")]; ok {
			months[idx].Revenue = months[idx].Revenue.Add(amount)
		}
	}

	staffNames := make(map[uuid.UUID]string, len(s.Users))
	for _, u := range s.Users {
		staffNames[u.ID] = u.Name
		if u.Role == enum.RoleCustomer {
			out.TotalCustomers++
		}
	}
	perf := make(map[uuid.UUID]*StaffPerformance)
	staffEntry := func(id uuid.UUID) *StaffPerformance {
		if p, ok := perf[id]; ok {
			return p
		}
		p := &StaffPerformance{StaffID: id, Name: staffNames[id], Revenue: decimal.Zero}
		perf[id] = p
		return p
	}

	out.TotalOrders = len(s.Orders)
	for _, o := range s.Orders {
		if !orderCountsTowardRevenue(o) {
			continue
		}
		amount := numericToDecimal(o.FinalTotal)
		out.OrderRevenue = out.OrderRevenue.Add(amount)
		addMonthly(o.CreatedAt, amount)
		if o.ProcessedBy.Valid {
			p := staffEntry(o.ProcessedBy.Bytes)
			p.Revenue = p.Revenue.Add(amount)
			p.Orders++
		}
	}

	serviceNames := make(map[uuid.UUID]string, len(s.Services))
	for _, svc := range s.Services {
		serviceNames[svc.ID] = svc.Name
	}
	popular := make(map[uuid.UUID]*ServicePopularity)

	out.TotalBookings = len(s.Bookings)
	for _, b := range s.Bookings {
		if !bookingCountsTowardRevenue(b) {
			continue
		}
		amount := numericToDecimal(b.Price)
		out.BookingRevenue = out.BookingRevenue.Add(amount)
		addMonthly(b.CreatedAt, amount)
		if b.StaffID.Valid {
			p := staffEntry(b.StaffID.Bytes)
			p.Revenue = p.Revenue.Add(amount)
			p.Bookings++
		}
		sp, ok := popular[b.ServiceID]
		if !ok {
			sp = &ServicePopularity{ServiceID: b.ServiceID, Name: serviceNames[b.ServiceID], Revenue: decimal.Zero}
			popular[b.ServiceID] = sp
		}
		sp.Bookings++
		sp.Revenue = sp.Revenue.Add(amount)
	}

	out.TotalGiftOrders = len(s.GiftOrders)
	for _, g := range s.GiftOrders {
		if !giftCountsTowardRevenue(g) {
			continue
		}
		amount := numericToDecimal(g.Price)
		out.GiftRevenue = out.GiftRevenue.Add(amount)
		addMonthly(g.CreatedAt, amount)
		if g.AssignedStaff.Valid {
			p := staffEntry(g.AssignedStaff.Bytes)
			p.Revenue = p.Revenue.Add(amount)
			p.GiftOrders++
		}
	}

	out.TotalRevenue = out.OrderRevenue.Add(out.BookingRevenue).Add(out.GiftRevenue)
	out.MonthlyRevenue = months

	for _, p := range perf {
		out.Staff = append(out.Staff, *p)
	}
	sort.Slice(out.Staff, func(i, j int) bool {
		if !out.Staff[i].Revenue.Equal(out.Staff[j].Revenue) {
			return out.Staff[i].Revenue.GreaterThan(out.Staff[j].Revenue)
		}
		return out.Staff[i].Name < out.Staff[j].Name
	})

	for _, sp := range popular {
		out.PopularServices = append(out.PopularServices, *sp)
	}
	sort.Slice(out.PopularServices, func(i, j int) bool {
		if out.PopularServices[i].Bookings != out.PopularServices[j].Bookings {
			return out.PopularServices[i].Bookings > out.PopularServices[j].Bookings
		}
		return out.PopularServices[i].Name < out.PopularServices[j].Name
	})
	if len(out.PopularServices) > 5 {
		out.PopularServices = out.PopularServices[:5]
	}

	return out
}

// ComputeStaffStats builds the personal dashboard for one staff member.
func ComputeStaffStats(s Snapshot, staffID uuid.UUID) StaffStats {
	out := StaffStats{
		Revenue:     decimal.Zero,
		Commission:  decimal.Zero,
		HoursWorked: decimal.Zero,
	}

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	clients := make(map[uuid.UUID]struct{})
	for _, b := range s.Bookings {
		if !b.StaffID.Valid || b.StaffID.Bytes != staffID {
			continue
		}

		if b.Status != enum.BookingStatusCancelled && b.ScheduledAt.Valid && b.ScheduledAt.Time.After(now) {
			out.UpcomingBookings = append(out.UpcomingBookings, b)
		}

		if !bookingCountsTowardRevenue(b) {
			continue
		}
		amount := numericToDecimal(b.Price)
		out.SalesCount++
		out.Revenue = out.Revenue.Add(amount)
		clients[b.UserID] = struct{}{}
		out.RecentBookings = append(out.RecentBookings, b)

		if b.Status == enum.BookingStatusCompleted {
			hours := decimal.NewFromInt32(b.DurationMinutes).Div(decimal.NewFromInt(60))
			out.HoursWorked = out.HoursWorked.Add(hours)
		}
	}

	for _, g := range s.GiftOrders {
		if !g.AssignedStaff.Valid || g.AssignedStaff.Bytes != staffID {
			continue
		}
		if !giftCountsTowardRevenue(g) {
			continue
		}
		out.SalesCount++
		out.Revenue = out.Revenue.Add(numericToDecimal(g.Price))
		clients[g.UserID] = struct{}{}
	}

	out.Commission = out.Revenue.Mul(commissionRate)
	out.UniqueClients = len(clients)

	sort.Slice(out.UpcomingBookings, func(i, j int) bool {
		return out.UpcomingBookings[i].ScheduledAt.Time.Before(out.UpcomingBookings[j].ScheduledAt.Time)
	})
	sort.Slice(out.RecentBookings, func(i, j int) bool {
		return out.RecentBookings[i].ScheduledAt.Time.After(out.RecentBookings[j].ScheduledAt.Time)
	})
	if len(out.RecentBookings) > 10 {
		out.RecentBookings = out.RecentBookings[:10]
	}

	return out
}

// ComputePublicStats produces the unauthenticated marketing counters.
func ComputePublicStats(s Snapshot) PublicStats {
	out := PublicStats{}
	for _, u := range s.Users {
		if u.Role == enum.RoleCustomer {
			out.HappyClients++
		}
	}
	for _, b := range s.Bookings {
		if b.Status == enum.BookingStatusCompleted {
			out.CompletedBookings++
		}
	}
	for _, svc := range s.Services {
		if svc.Available {
			out.ServicesOffered++
		}
	}
	return out
}

// Pending orders count toward revenue; only cancelled orders and failed or
// refunded payments are excluded.
func orderCountsTowardRevenue(o database.Order) bool {
	if o.Status == enum.OrderStatusCancelled {
		return false
	}
	return o.PaymentStatus != enum.PaymentStatusFailed && o.PaymentStatus != enum.PaymentStatusRefunded
}

func bookingCountsTowardRevenue(b database.Booking) bool {
	return b.Status == enum.BookingStatusConfirmed || b.Status == enum.BookingStatusCompleted
}

func giftCountsTowardRevenue(g database.GiftOrder) bool {
	switch g.Status {
	case enum.GiftStatusConfirmed, enum.GiftStatusCompleted, enum.GiftStatusScheduled, enum.GiftStatusDelivered:
		return true
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
