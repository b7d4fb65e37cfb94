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

var (
	ErrInvalidLeaveType    = errors.New("invalid leave type")
	ErrInvalidLeaveRange   = errors.New("end date must not be before start date")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrLeaveNotFound       = errors.New("leave request not found")
	ErrLeaveNotPending     = errors.New("leave request is not pending")
	ErrNotLeaveOwner       = errors.New("leave request belongs to another user")
)

// LeaveStore defines the DB methods needed for leave management.
// Satisfied by *database.Queries.
type LeaveStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	UpdateUserLeaveBalances(ctx context.Context, arg database.UpdateUserLeaveBalancesParams) (database.User, error)
	CreateLeaveRequest(ctx context.Context, arg database.CreateLeaveRequestParams) (database.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id uuid.UUID) (database.LeaveRequest, error)
	UpdateLeaveRequestStatus(ctx context.Context, arg database.UpdateLeaveRequestStatusParams) (database.LeaveRequest, error)
	ListLeaveRequestsByUser(ctx context.Context, userID uuid.UUID) ([]database.LeaveRequest, error)
}

// LeaveService handles leave requests and balances.
type LeaveService struct {
	store LeaveStore
}

// NewLeaveService creates a new LeaveService.
func NewLeaveService(store LeaveStore) *LeaveService {
	return &LeaveService{store: store}
}

// ApplyLeaveRequest is the input for applying for leave.
type ApplyLeaveRequest struct {
	UserID    uuid.UUID
	Type      string
	StartDate string // 2006-01-02
	EndDate   string
	Reason    string
}

// WorkingDays counts the weekdays between start and end inclusive.
func WorkingDays(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// Apply validates the request against the user's balance for the leave type
// and records it as pending. The balance is only deducted on approval.
func (s *LeaveService) Apply(ctx context.Context, req ApplyLeaveRequest) (database.LeaveRequest, error) {
	if !validLeaveType(req.Type) {
		return database.LeaveRequest{}, ErrInvalidLeaveType
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return database.LeaveRequest{}, ErrInvalidLeaveRange
	}

	workingDays := WorkingDays(start, end)

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("get user: %w", err)
	}
	if int32(workingDays) > balanceFor(user, req.Type) {
		return database.LeaveRequest{}, ErrInsufficientBalance
	}

	reason := pgtype.Text{}
	if req.Reason != "" {
		reason = pgtype.Text{String: req.Reason, Valid: true}
	}

	request, err := s.store.CreateLeaveRequest(ctx, database.CreateLeaveRequestParams{
		UserID:      req.UserID,
		Type:        req.Type,
		StartDate:   pgtype.Date{Time: start, Valid: true},
		EndDate:     pgtype.Date{Time: end, Valid: true},
		WorkingDays: int32(workingDays),
		Reason:      reason,
	})
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("create leave request: %w", err)
	}
	return request, nil
}

// Review approves or rejects a request. Approval deducts the working days
// from the user's balance for the leave type; rejecting a previously
// approved request credits them back.
func (s *LeaveService) Review(ctx context.Context, id, reviewerID uuid.UUID, approve bool) (database.LeaveRequest, error) {
	request, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.LeaveRequest{}, ErrLeaveNotFound
		}
		return database.LeaveRequest{}, fmt.Errorf("get leave request: %w", err)
	}
	switch {
	case request.Status == enum.LeaveStatusPending:
	case request.Status == enum.LeaveStatusApproved && !approve:
		// A late rejection reverses an earlier approval.
	default:
		return database.LeaveRequest{}, ErrLeaveNotPending
	}

	user, err := s.store.GetUserByID(ctx, request.UserID)
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("get user: %w", err)
	}

	status := enum.LeaveStatusRejected
	if approve {
		status = enum.LeaveStatusApproved
		if request.WorkingDays > balanceFor(user, request.Type) {
			return database.LeaveRequest{}, ErrInsufficientBalance
		}
		if err := s.adjustBalance(ctx, user, request.Type, -request.WorkingDays); err != nil {
			return database.LeaveRequest{}, err
		}
	} else if request.Status == enum.LeaveStatusApproved {
		if err := s.adjustBalance(ctx, user, request.Type, request.WorkingDays); err != nil {
			return database.LeaveRequest{}, err
		}
	}

	updated, err := s.store.UpdateLeaveRequestStatus(ctx, database.UpdateLeaveRequestStatusParams{
		ID:         id,
		Status:     status,
		ReviewedBy: pgtype.UUID{Bytes: reviewerID, Valid: true},
	})
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("update leave status: %w", err)
	}
	return updated, nil
}

func (s *LeaveService) adjustBalance(ctx context.Context, user database.User, leaveType string, delta int32) error {
	annual, sick, family := user.AnnualLeaveBalance, user.SickLeaveBalance, user.FamilyLeaveBalance
	switch leaveType {
	case enum.LeaveTypeAnnual:
		annual += delta
	case enum.LeaveTypeSick:
		sick += delta
	case enum.LeaveTypeFamily:
		family += delta
	}
	if _, err := s.store.UpdateUserLeaveBalances(ctx, database.UpdateUserLeaveBalancesParams{
		ID:                 user.ID,
		AnnualLeaveBalance: annual,
		SickLeaveBalance:   sick,
		FamilyLeaveBalance: family,
	}); err != nil {
		return fmt.Errorf("update leave balances: %w", err)
	}
	return nil
}

// Cancel lets a user withdraw their own pending request.
func (s *LeaveService) Cancel(ctx context.Context, id, userID uuid.UUID) (database.LeaveRequest, error) {
	request, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.LeaveRequest{}, ErrLeaveNotFound
		}
		return database.LeaveRequest{}, fmt.Errorf("get leave request: %w", err)
	}
	if request.UserID != userID {
		return database.LeaveRequest{}, ErrNotLeaveOwner
	}
	if request.Status != enum.LeaveStatusPending {
		return database.LeaveRequest{}, ErrLeaveNotPending
	}

	updated, err := s.store.UpdateLeaveRequestStatus(ctx, database.UpdateLeaveRequestStatusParams{
		ID:     id,
		Status: enum.LeaveStatusCancelled,
	})
	if err != nil {
		return database.LeaveRequest{}, fmt.Errorf("update leave status: %w", err)
	}
	return updated, nil
}

// YearStats sums a user's leave taken and pending per type for one year.
type YearStats struct {
	Year     int
	Taken    map[string]int32
	Pending  map[string]int32
	Balances map[string]int32
}

// Stats summarizes the user's leave for the given year.
func (s *LeaveService) Stats(ctx context.Context, userID uuid.UUID, year int) (YearStats, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return YearStats{}, fmt.Errorf("get user: %w", err)
	}
	requests, err := s.store.ListLeaveRequestsByUser(ctx, userID)
	if err != nil {
		return YearStats{}, fmt.Errorf("list leave requests: %w", err)
	}

	out := YearStats{
		Year:    year,
		Taken:   map[string]int32{enum.LeaveTypeAnnual: 0, enum.LeaveTypeSick: 0, enum.LeaveTypeFamily: 0},
		Pending: map[string]int32{enum.LeaveTypeAnnual: 0, enum.LeaveTypeSick: 0, enum.LeaveTypeFamily: 0},
		Balances: map[string]int32{
			enum.LeaveTypeAnnual: user.AnnualLeaveBalance,
			enum.LeaveTypeSick:   user.SickLeaveBalance,
			enum.LeaveTypeFamily: user.FamilyLeaveBalance,
		},
	}
	for _, r := range requests {
		if !r.StartDate.Valid || r.StartDate.Time.Year() != year {
			continue
		}
		switch r.Status {
		case enum.LeaveStatusApproved:
			out.Taken[r.Type] += r.WorkingDays
		case enum.LeaveStatusPending:
			out.Pending[r.Type] += r.WorkingDays
		}
	}
	return out, nil
}

func validLeaveType(t string) bool {
	switch t {
	case enum.LeaveTypeAnnual, enum.LeaveTypeSick, enum.LeaveTypeFamily:
		return true
	}
	return false
}

func balanceFor(u database.User, leaveType string) int32 {
	switch leaveType {
	case enum.LeaveTypeAnnual:
		return u.AnnualLeaveBalance
	case enum.LeaveTypeSick:
		return u.SickLeaveBalance
	case enum.LeaveTypeFamily:
		return u.FamilyLeaveBalance
	}
	return 0
}
