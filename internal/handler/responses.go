package handler

import (
	"time"

	"github.com/FulloMyself/tasselgroup-back/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Money crosses the HTTP boundary as a fixed two-decimal string.
func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func uuidOrNil(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func timeOrNil(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// --- Response types ---

type userResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	AssignedStaff *uuid.UUID `json:"assigned_staff,omitempty"`
}

func toUserResponse(u database.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Phone:         textOrEmpty(u.Phone),
		Address:       textOrEmpty(u.Address),
		AssignedStaff: uuidOrNil(u.AssignedStaff),
	}
}

type productResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         string    `json:"price"`
	Category      string    `json:"category,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	StockQuantity int32     `json:"stock_quantity"`
	InStock       bool      `json:"in_stock"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   textOrEmpty(p.Description),
		Price:         numericString(p.Price),
		Category:      textOrEmpty(p.Category),
		ImageURL:      textOrEmpty(p.ImageUrl),
		Tags:          p.Tags,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock,
	}
}

type serviceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Price           string    `json:"price"`
	DurationMinutes int32     `json:"duration_minutes"`
	Category        string    `json:"category,omitempty"`
	Available       bool      `json:"available"`
}

func toServiceResponse(s database.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     textOrEmpty(s.Description),
		Price:           numericString(s.Price),
		DurationMinutes: s.DurationMinutes,
		Category:        textOrEmpty(s.Category),
		Available:       s.Available,
	}
}

type giftPackageResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        string    `json:"price"`
	Includes     []string  `json:"includes,omitempty"`
	Customizable bool      `json:"customizable"`
	Available    bool      `json:"available"`
}

func toGiftPackageResponse(g database.GiftPackage) giftPackageResponse {
	return giftPackageResponse{
		ID:           g.ID,
		Name:         g.Name,
		Description:  textOrEmpty(g.Description),
		Price:        numericString(g.Price),
		Includes:     g.Includes,
		Customizable: g.Customizable,
		Available:    g.Available,
	}
}

type voucherResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Value       string     `json:"value"`
	MaxUses     int32      `json:"max_uses"`
	Used        int32      `json:"used"`
	IsActive    bool       `json:"is_active"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toVoucherResponse(v database.Voucher) voucherResponse {
	return voucherResponse{
		ID:          v.ID,
		Code:        v.Code,
		Description: textOrEmpty(v.Description),
		Type:        v.Type,
		Value:       numericString(v.Value),
		MaxUses:     v.MaxUses,
		Used:        v.Used,
		IsActive:    v.IsActive,
		AssignedTo:  uuidOrNil(v.AssignedTo),
		ExpiresAt:   timeOrNil(v.ExpiresAt),
	}
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int32     `json:"quantity"`
	Subtotal  string    `json:"subtotal"`
}

func toOrderItemResponse(i database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:        i.ID,
		ProductID: i.ProductID,
		Name:      i.Name,
		UnitPrice: numericString(i.UnitPrice),
		Quantity:  i.Quantity,
		Subtotal:  numericString(i.Subtotal),
	}
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	Status           string              `json:"status"`
	Subtotal         string              `json:"subtotal"`
	DiscountAmount   string              `json:"discount_amount"`
	FinalTotal       string              `json:"final_total"`
	VoucherID        *uuid.UUID          `json:"voucher_id,omitempty"`
	PaymentMethod    string              `json:"payment_method"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	ShippingAddress  string              `json:"shipping_address,omitempty"`
	TrackingNumber   string              `json:"tracking_number,omitempty"`
	ProcessedBy      *uuid.UUID          `json:"processed_by,omitempty"`
	CreatedAt        *time.Time          `json:"created_at,omitempty"`
	Items            []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           o.Status,
		Subtotal:         numericString(o.Subtotal),
		DiscountAmount:   numericString(o.DiscountAmount),
		FinalTotal:       numericString(o.FinalTotal),
		VoucherID:        uuidOrNil(o.VoucherID),
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		ShippingAddress:  textOrEmpty(o.ShippingAddress),
		TrackingNumber:   textOrEmpty(o.TrackingNumber),
		ProcessedBy:      uuidOrNil(o.ProcessedBy),
		CreatedAt:        timeOrNil(o.CreatedAt),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp
}

type bookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	ServiceID        uuid.UUID  `json:"service_id"`
	StaffID          *uuid.UUID `json:"staff_id,omitempty"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
	DurationMinutes  int32      `json:"duration_minutes"`
	Status           string     `json:"status"`
	Price            string     `json:"price"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	SpecialRequests  string     `json:"special_requests,omitempty"`
}

func toBookingResponse(b database.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		ServiceID:        b.ServiceID,
		StaffID:          uuidOrNil(b.StaffID),
		ScheduledAt:      timeOrNil(b.ScheduledAt),
		DurationMinutes:  b.DurationMinutes,
		Status:           b.Status,
		Price:            numericString(b.Price),
		PaymentMethod:    b.PaymentMethod,
		PaymentStatus:    b.PaymentStatus,
		PaymentReference: b.PaymentReference,
		SpecialRequests:  textOrEmpty(b.SpecialRequests),
	}
}

type giftOrderResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	GiftPackageID    uuid.UUID  `json:"gift_package_id"`
	RecipientName    string     `json:"recipient_name"`
	RecipientEmail   string     `json:"recipient_email,omitempty"`
	Message          string     `json:"message,omitempty"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
	AssignedStaff    *uuid.UUID `json:"assigned_staff,omitempty"`
	Status           string     `json:"status"`
	Price            string     `json:"price"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentReference string     `json:"payment_reference,omitempty"`
}

func toGiftOrderResponse(g database.GiftOrder) giftOrderResponse {
	return giftOrderResponse{
		ID:               g.ID,
		UserID:           g.UserID,
		GiftPackageID:    g.GiftPackageID,
		RecipientName:    g.RecipientName,
		RecipientEmail:   textOrEmpty(g.RecipientEmail),
		Message:          textOrEmpty(g.Message),
		DeliveryDate:     timeOrNil(g.DeliveryDate),
		AssignedStaff:    uuidOrNil(g.AssignedStaff),
		Status:           g.Status,
		Price:            numericString(g.Price),
		PaymentMethod:    g.PaymentMethod,
		PaymentStatus:    g.PaymentStatus,
		PaymentReference: g.PaymentReference,
	}
}

type leaveResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        string     `json:"type"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	WorkingDays int32      `json:"working_days"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
}

func toLeaveResponse(l database.LeaveRequest) leaveResponse {
	return leaveResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		Type:        l.Type,
		StartDate:   dateString(l.StartDate),
		EndDate:     dateString(l.EndDate),
		WorkingDays: l.WorkingDays,
		Reason:      textOrEmpty(l.Reason),
		Status:      l.Status,
		ReviewedBy:  uuidOrNil(l.ReviewedBy),
	}
}
