package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const productColumns = `id, category_id, name, description, price, image_url, status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

type ListProductsParams struct {
	Keyword    pgtype.Text
	CategoryID pgtype.UUID
	Status     pgtype.Text
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	Limit      int32
	Offset     int32
}

const productFilter = `
	($1::text IS NULL OR name ILIKE '%' || $1 || '%')
	AND ($2::uuid IS NULL OR category_id = $2)
	AND ($3::text IS NULL OR status = $3)
	AND ($4::numeric IS NULL OR price >= $4)
	AND ($5::numeric IS NULL OR price <= $5)`

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE `+productFilter+`
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`,
		arg.Keyword, arg.CategoryID, arg.Status, arg.MinPrice, arg.MaxPrice, arg.Limit, arg.Offset)
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

func (q *Queries) CountProducts(ctx context.Context, arg ListProductsParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+productFilter,
		arg.Keyword, arg.CategoryID, arg.Status, arg.MinPrice, arg.MaxPrice).Scan(&n)
	return n, err
}

type CreateProductParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       decimal.Decimal
	ImageURL    pgtype.Text
	Status      string
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (category_id, name, description, price, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.ImageURL, arg.Status)
	return scanProduct(row)
}

type UpdateProductParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       decimal.Decimal
	ImageURL    pgtype.Text
	Status      string
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, price = $5,
		    image_url = COALESCE($6, image_url), status = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.ImageURL, arg.Status)
	return scanProduct(row)
}

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
