package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/FulloMyself/tasselgroup-back/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingStore defines the DB methods needed to create bookings.
// Satisfied by *database.Queries.
type BookingStore interface {
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	CreateBooking(ctx context.Context, arg database.CreateBookingParams) (database.Booking, error)
}

// CreateBookingRequest is the validated input for creating a booking.
type CreateBookingRequest struct {
	UserID           uuid.UUID
	ServiceID        string
	StaffID          string
	ScheduledAt      string // RFC3339
	SpecialRequests  string
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string

	// Settled marks a booking whose payment has already been captured. The
	// gateway can deliver its notification after the slot has started, and a
	// paid booking must be recorded either way, so the past-date check only
	// guards direct checkout.
	Settled bool
}

// BookingService handles booking business logic.
type BookingService struct {
	store BookingStore
}

// NewBookingService creates a new BookingService.
func NewBookingService(store BookingStore) *BookingService {
	return &BookingService{store: store}
}

// CreateBooking validates the service and the slot, snapshots price and
// duration from the catalog, and creates the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (database.Booking, error) {
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return database.Booking{}, ErrServiceNotFound
	}

	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Booking{}, ErrServiceNotFound
		}
		return database.Booking{}, fmt.Errorf("get service: %w", err)
	}
	if !svc.Available {
		return database.Booking{}, ErrServiceUnavailable
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return database.Booking{}, ErrInvalidBookingDate
	}
	if !req.Settled && scheduledAt.Before(time.Now()) {
		return database.Booking{}, ErrPastBookingDate
	}

	staffID := pgtype.UUID{}
	if req.StaffID != "" {
		sid, err := uuid.Parse(req.StaffID)
		if err != nil {
			return database.Booking{}, fmt.Errorf("invalid staff_id: %w", err)
		}
		staffID = pgtype.UUID{Bytes: sid, Valid: true}
	}

	specialRequests := pgtype.Text{}
	if req.SpecialRequests != "" {
		specialRequests = pgtype.Text{String: req.SpecialRequests, Valid: true}
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCard
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enum.PaymentStatusPending
	}

	booking, err := s.store.CreateBooking(ctx, database.CreateBookingParams{
		UserID:           req.UserID,
		ServiceID:        serviceID,
		StaffID:          staffID,
		ScheduledAt:      pgtype.Timestamptz{Time: scheduledAt, Valid: true},
		DurationMinutes:  svc.DurationMinutes,
		Status:           enum.BookingStatusPending,
		Price:            svc.Price,
		PaymentMethod:    paymentMethod,
		PaymentStatus:    paymentStatus,
		PaymentReference: req.PaymentReference,
		SpecialRequests:  specialRequests,
	})
	if err != nil {
		return database.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}
