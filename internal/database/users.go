package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, name, email, password_hash, role, phone, address, assigned_staff,
	annual_leave_balance, sick_leave_balance, family_leave_balance, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Address,
		&u.AssignedStaff, &u.AnnualLeaveBalance, &u.SickLeaveBalance,
		&u.FamilyLeaveBalance, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

const createUser = `INSERT INTO users (name, email, password_hash, role, phone, address)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Phone        pgtype.Text
	Address      pgtype.Text
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.Name, arg.Email, arg.PasswordHash, arg.Role, arg.Phone, arg.Address))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const listStaff = `SELECT ` + userColumns + ` FROM users WHERE role = 'staff' ORDER BY name`

func (q *Queries) ListStaff(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUserProfile = `UPDATE users
SET name = $2, phone = $3, address = $4, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	ID      uuid.UUID
	Name    string
	Phone   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserProfile, arg.ID, arg.Name, arg.Phone, arg.Address))
}

const updateUserPassword = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

type UpdateUserPasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.Exec(ctx, updateUserPassword, arg.ID, arg.PasswordHash)
	return err
}

const updateUser = `UPDATE users
SET name = $2, email = $3, role = $4, phone = $5, address = $6, assigned_staff = $7, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserParams struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Role          string
	Phone         pgtype.Text
	Address       pgtype.Text
	AssignedStaff pgtype.UUID
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser,
		arg.ID, arg.Name, arg.Email, arg.Role, arg.Phone, arg.Address, arg.AssignedStaff))
}

const updateUserLeaveBalances = `UPDATE users
SET annual_leave_balance = $2, sick_leave_balance = $3, family_leave_balance = $4, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserLeaveBalancesParams struct {
	ID                 uuid.UUID
	AnnualLeaveBalance int32
	SickLeaveBalance   int32
	FamilyLeaveBalance int32
}

func (q *Queries) UpdateUserLeaveBalances(ctx context.Context, arg UpdateUserLeaveBalancesParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserLeaveBalances,
		arg.ID, arg.AnnualLeaveBalance, arg.SickLeaveBalance, arg.FamilyLeaveBalance))
}

const deleteUser = `DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteUser, id)
	return err
}
