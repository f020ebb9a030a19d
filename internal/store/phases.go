package store

import (
	"context"

	"github.com/google/uuid"
)

const phaseColumns = `id, name, sort_order, created_at`

func scanPhase(row interface{ Scan(...any) error }) (Phase, error) {
	var p Phase
	err := row.Scan(&p.ID, &p.Name, &p.SortOrder, &p.CreatedAt)
	return p, err
}

func (q *Queries) GetPhase(ctx context.Context, id uuid.UUID) (Phase, error) {
	row := q.db.QueryRow(ctx, `SELECT `+phaseColumns+` FROM phases WHERE id = $1`, id)
	return scanPhase(row)
}

func (q *Queries) ListPhases(ctx context.Context) ([]Phase, error) {
	rows, err := q.db.Query(ctx, `SELECT `+phaseColumns+` FROM phases ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

type CreatePhaseParams struct {
	Name      string
	SortOrder int32
}

func (q *Queries) CreatePhase(ctx context.Context, arg CreatePhaseParams) (Phase, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO phases (name, sort_order)
		VALUES ($1, $2)
		RETURNING `+phaseColumns,
		arg.Name, arg.SortOrder)
	return scanPhase(row)
}

type UpdatePhaseParams struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
}

func (q *Queries) UpdatePhase(ctx context.Context, arg UpdatePhaseParams) (Phase, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE phases SET name = $2, sort_order = $3 WHERE id = $1
		RETURNING `+phaseColumns,
		arg.ID, arg.Name, arg.SortOrder)
	return scanPhase(row)
}

func (q *Queries) DeletePhase(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM phases WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
