package database

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	PasswordHash       string
	Role               string
	Phone              pgtype.Text
	Address            pgtype.Text
	AssignedStaff      pgtype.UUID
	AnnualLeaveBalance int32
	SickLeaveBalance   int32
	FamilyLeaveBalance int32
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   pgtype.Text
	Price         pgtype.Numeric
	Category      pgtype.Text
	ImageUrl      pgtype.Text
	Tags          []string
	StockQuantity int32
	InStock       bool
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type Service struct {
	ID              uuid.UUID
	Name            string
	Description     pgtype.Text
	Price           pgtype.Numeric
	DurationMinutes int32
	Category        pgtype.Text
	Available       bool
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type GiftPackage struct {
	ID           uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Includes     []string
	Customizable bool
	Available    bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Voucher struct {
	ID          uuid.UUID
	Code        string
	Description pgtype.Text
	Type        string
	Value       pgtype.Numeric
	MaxUses     int32
	Used        int32
	IsActive    bool
	AssignedTo  pgtype.UUID
	ExpiresAt   pgtype.Timestamptz
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Order struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Status           string
	Subtotal         pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	FinalTotal       pgtype.Numeric
	VoucherID        pgtype.UUID
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	ShippingAddress  pgtype.Text
	TrackingNumber   pgtype.Text
	ProcessedBy      pgtype.UUID
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	UnitPrice pgtype.Numeric
	Quantity  int32
	Subtotal  pgtype.Numeric
}

type Booking struct {
	ID               uuid.UUID
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
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

type GiftOrder struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	GiftPackageID    uuid.UUID
	RecipientName    string
	RecipientEmail   pgtype.Text
	Message          pgtype.Text
	DeliveryDate     pgtype.Timestamptz
	AssignedStaff    pgtype.UUID
	Status           string
	Price            pgtype.Numeric
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

type LeaveRequest struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        string
	StartDate   pgtype.Date
	EndDate     pgtype.Date
	WorkingDays int32
	Reason      pgtype.Text
	Status      string
	ReviewedBy  pgtype.UUID
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}
