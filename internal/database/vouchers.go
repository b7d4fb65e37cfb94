package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const voucherColumns = `id, code, description, type, value, max_uses, used, is_active,
	assigned_to, expires_at, created_at, updated_at`

func scanVoucher(row interface{ Scan(...interface{}) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(
		&v.ID, &v.Code, &v.Description, &v.Type, &v.Value, &v.MaxUses, &v.Used,
		&v.IsActive, &v.AssignedTo, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

func (q *Queries) collectVouchers(ctx context.Context, sql string, args ...interface{}) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vouchers []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

const createVoucher = `INSERT INTO vouchers (code, description, type, value, max_uses, assigned_to, expires_at)
VALUES (upper($1), $2, $3, $4, $5, $6, $7)
RETURNING ` + voucherColumns

type CreateVoucherParams struct {
	Code        string
	Description pgtype.Text
	Type        string
	Value       pgtype.Numeric
	MaxUses     int32
	AssignedTo  pgtype.UUID
	ExpiresAt   pgtype.Timestamptz
}

func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, createVoucher,
		arg.Code, arg.Description, arg.Type, arg.Value, arg.MaxUses, arg.AssignedTo, arg.ExpiresAt))
}

const getVoucherByCode = `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = upper($1)`

func (q *Queries) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, getVoucherByCode, code))
}

const getVoucher = `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`

func (q *Queries) GetVoucher(ctx context.Context, id uuid.UUID) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, getVoucher, id))
}

const listVouchers = `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC`

func (q *Queries) ListVouchers(ctx context.Context) ([]Voucher, error) {
	return q.collectVouchers(ctx, listVouchers)
}

const listVouchersByAssignee = `SELECT ` + voucherColumns + ` FROM vouchers
WHERE assigned_to = $1 ORDER BY created_at DESC`

func (q *Queries) ListVouchersByAssignee(ctx context.Context, staffID uuid.UUID) ([]Voucher, error) {
	return q.collectVouchers(ctx, listVouchersByAssignee, staffID)
}

// ConsumeVoucher atomically takes one use; zero rows affected means the
// voucher is inactive, expired, or exhausted. A voucher stays redeemable
// through its exact expiry instant.
const consumeVoucher = `UPDATE vouchers
SET used = used + 1,
	is_active = used + 1 < max_uses,
	updated_at = now()
WHERE code = upper($1)
  AND is_active
  AND used < max_uses
  AND (expires_at IS NULL OR expires_at >= now())`

// VoucherRedeemable mirrors the consume query's WHERE clause for validation
// endpoints that answer without taking a use.
func VoucherRedeemable(v Voucher, now time.Time) bool {
	if !v.IsActive || v.Used >= v.MaxUses {
		return false
	}
	if v.ExpiresAt.Valid && v.ExpiresAt.Time.Before(now) {
		return false
	}
	return true
}

func (q *Queries) ConsumeVoucher(ctx context.Context, code string) (int64, error) {
	tag, err := q.db.Exec(ctx, consumeVoucher, code)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const updateVoucher = `UPDATE vouchers
SET description = $2, type = $3, value = $4, max_uses = $5, is_active = $6,
	assigned_to = $7, expires_at = $8, updated_at = now()
WHERE id = $1
RETURNING ` + voucherColumns

type UpdateVoucherParams struct {
	ID          uuid.UUID
	Description pgtype.Text
	Type        string
	Value       pgtype.Numeric
	MaxUses     int32
	IsActive    bool
	AssignedTo  pgtype.UUID
	ExpiresAt   pgtype.Timestamptz
}

func (q *Queries) UpdateVoucher(ctx context.Context, arg UpdateVoucherParams) (Voucher, error) {
	return scanVoucher(q.db.QueryRow(ctx, updateVoucher,
		arg.ID, arg.Description, arg.Type, arg.Value, arg.MaxUses, arg.IsActive,
		arg.AssignedTo, arg.ExpiresAt))
}

const deleteVoucher = `DELETE FROM vouchers WHERE id = $1`

func (q *Queries) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteVoucher, id)
	return err
}
