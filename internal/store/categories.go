package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, parent_id, name, description, image_url, status, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Description, &c.ImageURL, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) collectCategories(ctx context.Context, sql string, args ...any) ([]Category, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	row := q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

type ListCategoriesParams struct {
	Keyword pgtype.Text
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

const categoryFilter = `
	parent_id IS NULL
	AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR status = $2)`

// ListCategories returns top-level categories only; children are fetched
// separately so the one-level hierarchy can be nested in the response.
func (q *Queries) ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error) {
	return q.collectCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE `+categoryFilter+`
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		arg.Keyword, arg.Status, arg.Limit, arg.Offset)
}

func (q *Queries) CountCategories(ctx context.Context, arg ListCategoriesParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM categories WHERE `+categoryFilter,
		arg.Keyword, arg.Status).Scan(&n)
	return n, err
}

func (q *Queries) ListCategoryChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error) {
	return q.collectCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = $1
		ORDER BY name`, parentID)
}

func (q *Queries) CountCategoryChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM categories WHERE parent_id = $1`, parentID).Scan(&n)
	return n, err
}

type CreateCategoryParams struct {
	ParentID    pgtype.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	Status      string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO categories (parent_id, name, description, image_url, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		arg.ParentID, arg.Name, arg.Description, arg.ImageURL, arg.Status)
	return scanCategory(row)
}

type UpdateCategoryParams struct {
	ID          uuid.UUID
	ParentID    pgtype.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	Status      string
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE categories
		SET parent_id = $2, name = $3, description = $4,
		    image_url = COALESCE($5, image_url), status = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+categoryColumns,
		arg.ID, arg.ParentID, arg.Name, arg.Description, arg.ImageURL, arg.Status)
	return scanCategory(row)
}

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM categories WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
