package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const serviceColumns = `id, name, description, price, duration_minutes, category, available, created_at, updated_at`

func scanService(row interface{ Scan(...interface{}) error }) (Service, error) {
	var s Service
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Price, &s.DurationMinutes,
		&s.Category, &s.Available, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const createService = `INSERT INTO services (name, description, price, duration_minutes, category, available)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + serviceColumns

type CreateServiceParams struct {
	Name            string
	Description     pgtype.Text
	Price           pgtype.Numeric
	DurationMinutes int32
	Category        pgtype.Text
	Available       bool
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, createService,
		arg.Name, arg.Description, arg.Price, arg.DurationMinutes, arg.Category, arg.Available))
}

const getService = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	return scanService(q.db.QueryRow(ctx, getService, id))
}

const listServices = `SELECT ` + serviceColumns + ` FROM services ORDER BY name`

func (q *Queries) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var services []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

const updateService = `UPDATE services
SET name = $2, description = $3, price = $4, duration_minutes = $5, category = $6, available = $7, updated_at = now()
WHERE id = $1
RETURNING ` + serviceColumns

type UpdateServiceParams struct {
	ID              uuid.UUID
	Name            string
	Description     pgtype.Text
	Price           pgtype.Numeric
	DurationMinutes int32
	Category        pgtype.Text
	Available       bool
}

func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, updateService,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.DurationMinutes, arg.Category, arg.Available))
}

const deleteService = `DELETE FROM services WHERE id = $1`

func (q *Queries) DeleteService(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteService, id)
	return err
}
