package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, user_id, service_id, staff_id, scheduled_at, duration_minutes, status,
	price, payment_method, payment_status, payment_reference, special_requests, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ServiceID, &b.StaffID, &b.ScheduledAt, &b.DurationMinutes,
		&b.Status, &b.Price, &b.PaymentMethod, &b.PaymentStatus, &b.PaymentReference,
		&b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (q *Queries) collectBookings(ctx context.Context, sql string, args ...interface{}) ([]Booking, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

const createBooking = `INSERT INTO bookings (user_id, service_id, staff_id, scheduled_at, duration_minutes,
	status, price, payment_method, payment_status, payment_reference, special_requests)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + bookingColumns

type CreateBookingParams struct {
	UserID           uuid.UUID
	ServiceID        uuid.UUID
	StaffID          pgtype.UUID
	ScheduledAt      pgtype.Timestamptz
	DurationMinutes  int32
	Status           string
	Price            pgtype.Numeric
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	SpecialRequests  pgtype.Text
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, createBooking,
		arg.UserID, arg.ServiceID, arg.StaffID, arg.ScheduledAt, arg.DurationMinutes,
		arg.Status, arg.Price, arg.PaymentMethod, arg.PaymentStatus, arg.PaymentReference,
		arg.SpecialRequests))
}

const getBooking = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

func (q *Queries) GetBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, getBooking, id))
}

const getBookingByPaymentReference = `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_reference = $1`

func (q *Queries) GetBookingByPaymentReference(ctx context.Context, ref string) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, getBookingByPaymentReference, ref))
}

const listBookings = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY scheduled_at DESC`

func (q *Queries) ListBookings(ctx context.Context) ([]Booking, error) {
	return q.collectBookings(ctx, listBookings)
}

const listBookingsByUser = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY scheduled_at DESC`

func (q *Queries) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return q.collectBookings(ctx, listBookingsByUser, userID)
}

const listBookingsByStaff = `SELECT ` + bookingColumns + ` FROM bookings WHERE staff_id = $1 ORDER BY scheduled_at DESC`

func (q *Queries) ListBookingsByStaff(ctx context.Context, staffID uuid.UUID) ([]Booking, error) {
	return q.collectBookings(ctx, listBookingsByStaff, staffID)
}

const listUnassignedBookings = `SELECT ` + bookingColumns + ` FROM bookings
WHERE staff_id IS NULL AND status NOT IN ('cancelled', 'completed')
ORDER BY scheduled_at`

func (q *Queries) ListUnassignedBookings(ctx context.Context) ([]Booking, error) {
	return q.collectBookings(ctx, listUnassignedBookings)
}

const updateBookingStatus = `UPDATE bookings
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns

type UpdateBookingStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, updateBookingStatus, arg.ID, arg.Status))
}

// AssignBookingStaff confirms the booking as part of the assignment.
const assignBookingStaff = `UPDATE bookings
SET staff_id = $2, status = 'confirmed', updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns

type AssignBookingStaffParams struct {
	ID      uuid.UUID
	StaffID uuid.UUID
}

func (q *Queries) AssignBookingStaff(ctx context.Context, arg AssignBookingStaffParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, assignBookingStaff, arg.ID, arg.StaffID))
}
