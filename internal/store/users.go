package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, full_name, role, status, hashed_password, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Status, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

type ListUsersParams struct {
	Keyword pgtype.Text
	Role    pgtype.Text
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

const userFilter = `
	($1::text IS NULL OR email ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR role = $2)
	AND ($3::text IS NULL OR status = $3)`

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE `+userFilter+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.Keyword, arg.Role, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) CountUsers(ctx context.Context, arg ListUsersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+userFilter,
		arg.Keyword, arg.Role, arg.Status).Scan(&n)
	return n, err
}

type CreateUserParams struct {
	Email          string
	FullName       string
	Role           string
	Status         string
	HashedPassword string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, full_name, role, status, hashed_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.Email, arg.FullName, arg.Role, arg.Status, arg.HashedPassword)
	return scanUser(row)
}

type UpdateUserParams struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Role     string
	Status   string
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET email = $2, full_name = $3, role = $4, status = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		arg.ID, arg.Email, arg.FullName, arg.Role, arg.Status)
	return scanUser(row)
}

func (q *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, hashed string) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET hashed_password = $2, updated_at = now() WHERE id = $1`, id, hashed)
	return err
}

// SoftDeleteUser deactivates the account instead of removing the row; tickets
// and orders keep their author references.
func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE users SET status = 'Inactive', updated_at = now()
		WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
