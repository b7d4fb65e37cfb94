package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const leaveColumns = `id, user_id, type, start_date, end_date, working_days, reason, status,
	reviewed_by, created_at, updated_at`

func scanLeaveRequest(row interface{ Scan(...interface{}) error }) (LeaveRequest, error) {
	var l LeaveRequest
	err := row.Scan(
		&l.ID, &l.UserID, &l.Type, &l.StartDate, &l.EndDate, &l.WorkingDays,
		&l.Reason, &l.Status, &l.ReviewedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (q *Queries) collectLeaveRequests(ctx context.Context, sql string, args ...interface{}) ([]LeaveRequest, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var requests []LeaveRequest
	for rows.Next() {
		l, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, l)
	}
	return requests, rows.Err()
}

const createLeaveRequest = `INSERT INTO leave_requests (user_id, type, start_date, end_date, working_days, reason, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING ` + leaveColumns

type CreateLeaveRequestParams struct {
	UserID      uuid.UUID
	Type        string
	StartDate   pgtype.Date
	EndDate     pgtype.Date
	WorkingDays int32
	Reason      pgtype.Text
}

func (q *Queries) CreateLeaveRequest(ctx context.Context, arg CreateLeaveRequestParams) (LeaveRequest, error) {
	return scanLeaveRequest(q.db.QueryRow(ctx, createLeaveRequest,
		arg.UserID, arg.Type, arg.StartDate, arg.EndDate, arg.WorkingDays, arg.Reason))
}

const getLeaveRequest = `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`

func (q *Queries) GetLeaveRequest(ctx context.Context, id uuid.UUID) (LeaveRequest, error) {
	return scanLeaveRequest(q.db.QueryRow(ctx, getLeaveRequest, id))
}

const listLeaveRequests = `SELECT ` + leaveColumns + ` FROM leave_requests ORDER BY created_at DESC`

func (q *Queries) ListLeaveRequests(ctx context.Context) ([]LeaveRequest, error) {
	return q.collectLeaveRequests(ctx, listLeaveRequests)
}

const listLeaveRequestsByUser = `SELECT ` + leaveColumns + ` FROM leave_requests
WHERE user_id = $1 ORDER BY start_date DESC`

func (q *Queries) ListLeaveRequestsByUser(ctx context.Context, userID uuid.UUID) ([]LeaveRequest, error) {
	return q.collectLeaveRequests(ctx, listLeaveRequestsByUser, userID)
}

const updateLeaveRequestStatus = `UPDATE leave_requests
SET status = $2, reviewed_by = $3, updated_at = now()
WHERE id = $1
RETURNING ` + leaveColumns

type UpdateLeaveRequestStatusParams struct {
	ID         uuid.UUID
	Status     string
	ReviewedBy pgtype.UUID
}

func (q *Queries) UpdateLeaveRequestStatus(ctx context.Context, arg UpdateLeaveRequestStatusParams) (LeaveRequest, error) {
	return scanLeaveRequest(q.db.QueryRow(ctx, updateLeaveRequestStatus, arg.ID, arg.Status, arg.ReviewedBy))
}
