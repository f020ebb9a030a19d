package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const deviceColumns = `id, name, serial_code, type, image_url, status, created_at, updated_at`

func scanDevice(row interface{ Scan(...any) error }) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.Name, &d.SerialCode, &d.Type, &d.ImageURL, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (q *Queries) GetDevice(ctx context.Context, id uuid.UUID) (Device, error) {
	row := q.db.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	return scanDevice(row)
}

type ListDevicesParams struct {
	Keyword pgtype.Text
	Type    pgtype.Text
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

const deviceFilter = `
	($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR serial_code ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR type = $2)
	AND ($3::text IS NULL OR status = $3)`

func (q *Queries) ListDevices(ctx context.Context, arg ListDevicesParams) ([]Device, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deviceColumns+` FROM devices
		WHERE `+deviceFilter+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.Keyword, arg.Type, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (q *Queries) CountDevices(ctx context.Context, arg ListDevicesParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM devices WHERE `+deviceFilter,
		arg.Keyword, arg.Type, arg.Status).Scan(&n)
	return n, err
}

type CreateDeviceParams struct {
	Name       string
	SerialCode string
	Type       string
	ImageURL   pgtype.Text
	Status     string
}

func (q *Queries) CreateDevice(ctx context.Context, arg CreateDeviceParams) (Device, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO devices (name, serial_code, type, image_url, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+deviceColumns,
		arg.Name, arg.SerialCode, arg.Type, arg.ImageURL, arg.Status)
	return scanDevice(row)
}

type UpdateDeviceParams struct {
	ID         uuid.UUID
	Name       string
	SerialCode string
	Type       string
	ImageURL   pgtype.Text
	Status     string
}

func (q *Queries) UpdateDevice(ctx context.Context, arg UpdateDeviceParams) (Device, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE devices
		SET name = $2, serial_code = $3, type = $4,
		    image_url = COALESCE($5, image_url), status = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+deviceColumns,
		arg.ID, arg.Name, arg.SerialCode, arg.Type, arg.ImageURL, arg.Status)
	return scanDevice(row)
}

func (q *Queries) DeleteDevice(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM devices WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
