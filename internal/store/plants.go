package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const plantColumns = `id, name, status, created_at, updated_at`

func scanPlant(row interface{ Scan(...any) error }) (Plant, error) {
	var p Plant
	err := row.Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetPlant(ctx context.Context, id uuid.UUID) (Plant, error) {
	row := q.db.QueryRow(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1`, id)
	return scanPlant(row)
}

type ListPlantsParams struct {
	Keyword pgtype.Text
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

const plantFilter = `
	($1::text IS NULL OR name ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR status = $2)`

func (q *Queries) ListPlants(ctx context.Context, arg ListPlantsParams) ([]Plant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+plantColumns+` FROM plants
		WHERE `+plantFilter+`
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		arg.Keyword, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (q *Queries) CountPlants(ctx context.Context, arg ListPlantsParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM plants WHERE `+plantFilter,
		arg.Keyword, arg.Status).Scan(&n)
	return n, err
}

type CreatePlantParams struct {
	Name   string
	Status string
}

func (q *Queries) CreatePlant(ctx context.Context, arg CreatePlantParams) (Plant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO plants (name, status)
		VALUES ($1, $2)
		RETURNING `+plantColumns,
		arg.Name, arg.Status)
	return scanPlant(row)
}

type UpdatePlantParams struct {
	ID     uuid.UUID
	Name   string
	Status string
}

func (q *Queries) UpdatePlant(ctx context.Context, arg UpdatePlantParams) (Plant, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE plants SET name = $2, status = $3, updated_at = now() WHERE id = $1
		RETURNING `+plantColumns,
		arg.ID, arg.Name, arg.Status)
	return scanPlant(row)
}

func (q *Queries) DeletePlant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM plants WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// ListPlantTargets returns the plant's target associations joined with target
// bounds and the phase each one is scoped to (phase columns are NULL for
// global associations).
func (q *Queries) ListPlantTargets(ctx context.Context, plantID uuid.UUID) ([]PlantTargetRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT tv.id, tv.type, tv.min_value, tv.max_value, ptv.phase_id, ph.name
		FROM plant_target_values ptv
		JOIN target_values tv ON tv.id = ptv.target_value_id
		LEFT JOIN phases ph ON ph.id = ptv.phase_id
		WHERE ptv.plant_id = $1
		ORDER BY tv.type, ph.sort_order NULLS FIRST`, plantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []PlantTargetRow
	for rows.Next() {
		var t PlantTargetRow
		if err := rows.Scan(&t.TargetValueID, &t.Type, &t.MinValue, &t.MaxValue, &t.PhaseID, &t.PhaseName); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

type SetPlantTargetParams struct {
	PlantID       uuid.UUID
	TargetValueID uuid.UUID
	Type          string
	PhaseID       pgtype.UUID
}

// SetPlantTarget assigns a target value to the plant for the target's
// measurement type and optional phase. An existing association for the same
// (type, phase) pair is replaced, never duplicated: the upsert conflicts on
// the unique index, so concurrent assignments cannot leave two rows behind.
func (q *Queries) SetPlantTarget(ctx context.Context, arg SetPlantTargetParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO plant_target_values (plant_id, target_value_id, type, phase_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plant_id, type, COALESCE(phase_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET target_value_id = EXCLUDED.target_value_id, created_at = now()`,
		arg.PlantID, arg.TargetValueID, arg.Type, arg.PhaseID)
	return err
}

type RemovePlantTargetParams struct {
	PlantID       uuid.UUID
	TargetValueID uuid.UUID
	PhaseID       pgtype.UUID
}

func (q *Queries) RemovePlantTarget(ctx context.Context, arg RemovePlantTargetParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM plant_target_values
		WHERE plant_id = $1 AND target_value_id = $2 AND phase_id IS NOT DISTINCT FROM $3`,
		arg.PlantID, arg.TargetValueID, arg.PhaseID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
