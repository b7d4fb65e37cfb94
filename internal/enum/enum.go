package enum

// ── Roles ──

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// ── Order lifecycle ──

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ── Booking lifecycle ──

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// ── Gift order lifecycle ──

const (
	GiftStatusPending   = "pending"
	GiftStatusConfirmed = "confirmed"
	GiftStatusCompleted = "completed"
	GiftStatusScheduled = "scheduled"
	GiftStatusDelivered = "delivered"
	GiftStatusCancelled = "cancelled"
)

// ── Payment ──

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusManual     = "manual"
)

const (
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
	PaymentMethodPayfast      = "payfast"
	PaymentMethodManual       = "manual"
	PaymentMethodBankTransfer = "bank_transfer"
)

// ── Vouchers ──

const (
	VoucherTypePercentage = "percentage"
	VoucherTypeFixed      = "fixed"
)

// ── Purchase types carried through the payment gateway ──

const (
	PurchaseTypeOrder   = "order"
	PurchaseTypeBooking = "booking"
	PurchaseTypeGift    = "gift"
)

// ── Leave ──

const (
	LeaveTypeAnnual = "annual"
	LeaveTypeSick   = "sick"
	LeaveTypeFamily = "family"
)

const (
	LeaveStatusPending   = "pending"
	LeaveStatusApproved  = "approved"
	LeaveStatusRejected  = "rejected"
	LeaveStatusCancelled = "cancelled"
)
