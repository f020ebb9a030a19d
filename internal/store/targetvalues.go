package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const targetValueColumns = `id, type, min_value, max_value, created_at, updated_at`

func scanTargetValue(row interface{ Scan(...any) error }) (TargetValue, error) {
	var tv TargetValue
	err := row.Scan(&tv.ID, &tv.Type, &tv.MinValue, &tv.MaxValue, &tv.CreatedAt, &tv.UpdatedAt)
	return tv, err
}

func (q *Queries) GetTargetValue(ctx context.Context, id uuid.UUID) (TargetValue, error) {
	row := q.db.QueryRow(ctx, `SELECT `+targetValueColumns+` FROM target_values WHERE id = $1`, id)
	return scanTargetValue(row)
}

type ListTargetValuesParams struct {
	Type    pgtype.Text
	Keyword pgtype.Text
	Limit   int32
	Offset  int32
}

const targetValueFilter = `
	($1::text IS NULL OR type = $1)
	AND ($2::text IS NULL OR type ILIKE '%' || $2 || '%')`

func (q *Queries) ListTargetValues(ctx context.Context, arg ListTargetValuesParams) ([]TargetValue, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+targetValueColumns+` FROM target_values
		WHERE `+targetValueFilter+`
		ORDER BY type, min_value
		LIMIT $3 OFFSET $4`,
		arg.Type, arg.Keyword, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []TargetValue
	for rows.Next() {
		tv, err := scanTargetValue(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, tv)
	}
	return targets, rows.Err()
}

func (q *Queries) CountTargetValues(ctx context.Context, arg ListTargetValuesParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM target_values
		WHERE `+targetValueFilter, arg.Type, arg.Keyword).Scan(&n)
	return n, err
}

type CreateTargetValueParams struct {
	Type     string
	MinValue decimal.Decimal
	MaxValue decimal.Decimal
}

func (q *Queries) CreateTargetValue(ctx context.Context, arg CreateTargetValueParams) (TargetValue, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO target_values (type, min_value, max_value)
		VALUES ($1, $2, $3)
		RETURNING `+targetValueColumns,
		arg.Type, arg.MinValue, arg.MaxValue)
	return scanTargetValue(row)
}

type UpdateTargetValueParams struct {
	ID       uuid.UUID
	Type     string
	MinValue decimal.Decimal
	MaxValue decimal.Decimal
}

func (q *Queries) UpdateTargetValue(ctx context.Context, arg UpdateTargetValueParams) (TargetValue, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE target_values
		SET type = $2, min_value = $3, max_value = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+targetValueColumns,
		arg.ID, arg.Type, arg.MinValue, arg.MaxValue)
	return scanTargetValue(row)
}

func (q *Queries) DeleteTargetValue(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM target_values WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// CountTargetValueAssociations reports how many plants reference the target.
// Deletion is blocked while the count is non-zero.
func (q *Queries) CountTargetValueAssociations(ctx context.Context, targetValueID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM plant_target_values WHERE target_value_id = $1`, targetValueID).Scan(&n)
	return n, err
}
