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

// GiftStore defines the DB methods needed to create gift orders.
// Satisfied by *database.Queries.
type GiftStore interface {
	GetGiftPackage(ctx context.Context, id uuid.UUID) (database.GiftPackage, error)
	CreateGiftOrder(ctx context.Context, arg database.CreateGiftOrderParams) (database.GiftOrder, error)
}

// CreateGiftOrderRequest is the validated input for creating a gift order.
type CreateGiftOrderRequest struct {
	UserID           uuid.UUID
	GiftPackageID    string
	RecipientName    string
	RecipientEmail   string
	Message          string
	DeliveryDate     string // RFC3339, optional
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	AssignedStaff    string
}

// GiftService handles gift order business logic.
type GiftService struct {
	store GiftStore
}

// NewGiftService creates a new GiftService.
func NewGiftService(store GiftStore) *GiftService {
	return &GiftService{store: store}
}

// CreateGiftOrder validates the package, snapshots its price, and creates the
// gift order.
func (s *GiftService) CreateGiftOrder(ctx context.Context, req CreateGiftOrderRequest) (database.GiftOrder, error) {
	packageID, err := uuid.Parse(req.GiftPackageID)
	if err != nil {
		return database.GiftOrder{}, ErrGiftPackageNotFound
	}

	pkg, err := s.store.GetGiftPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.GiftOrder{}, ErrGiftPackageNotFound
		}
		return database.GiftOrder{}, fmt.Errorf("get gift package: %w", err)
	}
	if !pkg.Available {
		return database.GiftOrder{}, ErrGiftUnavailable
	}

	if req.RecipientName == "" {
		return database.GiftOrder{}, errors.New("recipient_name is required")
	}

	deliveryDate := pgtype.Timestamptz{}
	if req.DeliveryDate != "" {
		t, err := time.Parse(time.RFC3339, req.DeliveryDate)
		if err != nil {
			return database.GiftOrder{}, fmt.Errorf("invalid delivery_date: %w", err)
		}
		deliveryDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	recipientEmail := pgtype.Text{}
	if req.RecipientEmail != "" {
		recipientEmail = pgtype.Text{String: req.RecipientEmail, Valid: true}
	}
	message := pgtype.Text{}
	if req.Message != "" {
		message = pgtype.Text{String: req.Message, Valid: true}
	}
	assignedStaff := pgtype.UUID{}
	if req.AssignedStaff != "" {
		sid, err := uuid.Parse(req.AssignedStaff)
		if err != nil {
			return database.GiftOrder{}, fmt.Errorf("invalid assigned_staff: %w", err)
		}
		assignedStaff = pgtype.UUID{Bytes: sid, Valid: true}
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCard
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enum.PaymentStatusPending
	}

	gift, err := s.store.CreateGiftOrder(ctx, database.CreateGiftOrderParams{
		UserID:           req.UserID,
		GiftPackageID:    packageID,
		RecipientName:    req.RecipientName,
		RecipientEmail:   recipientEmail,
		Message:          message,
		DeliveryDate:     deliveryDate,
		Status:           enum.GiftStatusPending,
		Price:            pkg.Price,
		PaymentMethod:    paymentMethod,
		PaymentStatus:    paymentStatus,
		PaymentReference: req.PaymentReference,
		AssignedStaff:    assignedStaff,
	})
	if err != nil {
		return database.GiftOrder{}, fmt.Errorf("create gift order: %w", err)
	}
	return gift, nil
}
