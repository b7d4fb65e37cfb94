package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const giftPackageColumns = `id, name, description, price, includes, customizable, available, created_at, updated_at`

func scanGiftPackage(row interface{ Scan(...interface{}) error }) (GiftPackage, error) {
	var g GiftPackage
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.Price, &g.Includes,
		&g.Customizable, &g.Available, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

const createGiftPackage = `INSERT INTO gift_packages (name, description, price, includes, customizable, available)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + giftPackageColumns

type CreateGiftPackageParams struct {
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Includes     []string
	Customizable bool
	Available    bool
}

func (q *Queries) CreateGiftPackage(ctx context.Context, arg CreateGiftPackageParams) (GiftPackage, error) {
	return scanGiftPackage(q.db.QueryRow(ctx, createGiftPackage,
		arg.Name, arg.Description, arg.Price, arg.Includes, arg.Customizable, arg.Available))
}

const getGiftPackage = `SELECT ` + giftPackageColumns + ` FROM gift_packages WHERE id = $1`

func (q *Queries) GetGiftPackage(ctx context.Context, id uuid.UUID) (GiftPackage, error) {
	return scanGiftPackage(q.db.QueryRow(ctx, getGiftPackage, id))
}

const listGiftPackages = `SELECT ` + giftPackageColumns + ` FROM gift_packages ORDER BY name`

func (q *Queries) ListGiftPackages(ctx context.Context) ([]GiftPackage, error) {
	rows, err := q.db.Query(ctx, listGiftPackages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var packages []GiftPackage
	for rows.Next() {
		g, err := scanGiftPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, g)
	}
	return packages, rows.Err()
}

const updateGiftPackage = `UPDATE gift_packages
SET name = $2, description = $3, price = $4, includes = $5, customizable = $6, available = $7, updated_at = now()
WHERE id = $1
RETURNING ` + giftPackageColumns

type UpdateGiftPackageParams struct {
	ID           uuid.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Includes     []string
	Customizable bool
	Available    bool
}

func (q *Queries) UpdateGiftPackage(ctx context.Context, arg UpdateGiftPackageParams) (GiftPackage, error) {
	return scanGiftPackage(q.db.QueryRow(ctx, updateGiftPackage,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Includes, arg.Customizable, arg.Available))
}

const deleteGiftPackage = `DELETE FROM gift_packages WHERE id = $1`

func (q *Queries) DeleteGiftPackage(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteGiftPackage, id)
	return err
}
