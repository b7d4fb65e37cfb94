package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, description, price, category, image_url, tags,
	stock_quantity, in_stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageUrl,
		&p.Tags, &p.StockQuantity, &p.InStock, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (q *Queries) collectProducts(ctx context.Context, sql string, args ...interface{}) ([]Product, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const createProduct = `INSERT INTO products (name, description, price, category, image_url, tags, stock_quantity, in_stock)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7 > 0)
RETURNING ` + productColumns

type CreateProductParams struct {
	Name          string
	Description   pgtype.Text
	Price         pgtype.Numeric
	Category      pgtype.Text
	ImageUrl      pgtype.Text
	Tags          []string
	StockQuantity int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Description, arg.Price, arg.Category, arg.ImageUrl, arg.Tags, arg.StockQuantity))
}

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

const listProducts = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	return q.collectProducts(ctx, listProducts)
}

const listProductsByCategory = `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY name`

func (q *Queries) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return q.collectProducts(ctx, listProductsByCategory, pgtype.Text{String: category, Valid: true})
}

const searchProducts = `SELECT ` + productColumns + ` FROM products
WHERE name ILIKE '%' || $1 || '%'
   OR description ILIKE '%' || $1 || '%'
   OR $1 ILIKE ANY(tags)
ORDER BY name`

func (q *Queries) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	return q.collectProducts(ctx, searchProducts, query)
}

const updateProduct = `UPDATE products
SET name = $2, description = $3, price = $4, category = $5, image_url = $6, tags = $7,
	stock_quantity = $8, in_stock = $8 > 0, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID            uuid.UUID
	Name          string
	Description   pgtype.Text
	Price         pgtype.Numeric
	Category      pgtype.Text
	ImageUrl      pgtype.Text
	Tags          []string
	StockQuantity int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Category, arg.ImageUrl,
		arg.Tags, arg.StockQuantity))
}

// DecrementProductStock conditionally takes stock; zero rows affected means
// the product is missing or has insufficient stock.
const decrementProductStock = `UPDATE products
SET stock_quantity = stock_quantity - $2,
	in_stock = stock_quantity - $2 > 0,
	updated_at = now()
WHERE id = $1 AND stock_quantity >= $2`

type DecrementProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, decrementProductStock, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteProduct = `DELETE FROM products WHERE id = $1`

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteProduct, id)
	return err
}
