package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const incomeColumns = `id, employee_id, employee_name, employee_role, department, period,
	base_salary, total_income, total_deductions, net_income,
	payment_status, payment_method, payment_date, notes, created_at, updated_at`

func scanIncome(row interface{ Scan(...any) error }) (EmployeeIncome, error) {
	var in EmployeeIncome
	err := row.Scan(&in.ID, &in.EmployeeID, &in.EmployeeName, &in.EmployeeRole, &in.Department,
		&in.Period, &in.BaseSalary, &in.TotalIncome, &in.TotalDeductions, &in.NetIncome,
		&in.PaymentStatus, &in.PaymentMethod, &in.PaymentDate, &in.Notes, &in.CreatedAt, &in.UpdatedAt)
	return in, err
}

func (q *Queries) GetEmployeeIncome(ctx context.Context, id uuid.UUID) (EmployeeIncome, error) {
	row := q.db.QueryRow(ctx, `SELECT `+incomeColumns+` FROM employee_incomes WHERE id = $1`, id)
	return scanIncome(row)
}

type ListEmployeeIncomesParams struct {
	Keyword       pgtype.Text
	PaymentStatus pgtype.Text
	Period        pgtype.Text
	Limit         int32
	Offset        int32
}

const incomeFilter = `
	($1::text IS NULL OR employee_name ILIKE '%' || $1 || '%' OR department ILIKE '%' || $1 || '%')
	AND ($2::text IS NULL OR payment_status = $2)
	AND ($3::text IS NULL OR period = $3)`

func (q *Queries) ListEmployeeIncomes(ctx context.Context, arg ListEmployeeIncomesParams) ([]EmployeeIncome, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+incomeColumns+` FROM employee_incomes
		WHERE `+incomeFilter+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.Keyword, arg.PaymentStatus, arg.Period, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incomes []EmployeeIncome
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

func (q *Queries) CountEmployeeIncomes(ctx context.Context, arg ListEmployeeIncomesParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM employee_incomes WHERE `+incomeFilter,
		arg.Keyword, arg.PaymentStatus, arg.Period).Scan(&n)
	return n, err
}

type CreateEmployeeIncomeParams struct {
	EmployeeID      uuid.UUID
	EmployeeName    string
	EmployeeRole    string
	Department      string
	Period          string
	BaseSalary      decimal.Decimal
	TotalIncome     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetIncome       decimal.Decimal
	PaymentStatus   string
	PaymentMethod   string
	Notes           pgtype.Text
}

func (q *Queries) CreateEmployeeIncome(ctx context.Context, arg CreateEmployeeIncomeParams) (EmployeeIncome, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO employee_incomes (employee_id, employee_name, employee_role, department, period,
			base_salary, total_income, total_deductions, net_income,
			payment_status, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+incomeColumns,
		arg.EmployeeID, arg.EmployeeName, arg.EmployeeRole, arg.Department, arg.Period,
		arg.BaseSalary, arg.TotalIncome, arg.TotalDeductions, arg.NetIncome,
		arg.PaymentStatus, arg.PaymentMethod, arg.Notes)
	return scanIncome(row)
}

type UpdateEmployeeIncomeParams struct {
	ID              uuid.UUID
	EmployeeName    string
	EmployeeRole    string
	Department      string
	Period          string
	BaseSalary      decimal.Decimal
	TotalIncome     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetIncome       decimal.Decimal
	PaymentMethod   string
	Notes           pgtype.Text
}

func (q *Queries) UpdateEmployeeIncome(ctx context.Context, arg UpdateEmployeeIncomeParams) (EmployeeIncome, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE employee_incomes
		SET employee_name = $2, employee_role = $3, department = $4, period = $5,
		    base_salary = $6, total_income = $7, total_deductions = $8, net_income = $9,
		    payment_method = $10, notes = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+incomeColumns,
		arg.ID, arg.EmployeeName, arg.EmployeeRole, arg.Department, arg.Period,
		arg.BaseSalary, arg.TotalIncome, arg.TotalDeductions, arg.NetIncome,
		arg.PaymentMethod, arg.Notes)
	return scanIncome(row)
}

type UpdateIncomePaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus string
	PaymentDate   pgtype.Timestamptz
	// FromStatus guards against concurrent status changes.
	FromStatus string
}

func (q *Queries) UpdateIncomePaymentStatus(ctx context.Context, arg UpdateIncomePaymentStatusParams) (EmployeeIncome, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE employee_incomes
		SET payment_status = $2, payment_date = $3, updated_at = now()
		WHERE id = $1 AND payment_status = $4
		RETURNING `+incomeColumns,
		arg.ID, arg.PaymentStatus, arg.PaymentDate, arg.FromStatus)
	return scanIncome(row)
}

func (q *Queries) DeleteEmployeeIncome(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `DELETE FROM employee_incomes WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

const incomeItemColumns = `id, income_id, item_type, label, amount`

func scanIncomeItem(row interface{ Scan(...any) error }) (IncomeItem, error) {
	var it IncomeItem
	err := row.Scan(&it.ID, &it.IncomeID, &it.ItemType, &it.Label, &it.Amount)
	return it, err
}

func (q *Queries) ListIncomeItems(ctx context.Context, incomeID uuid.UUID) ([]IncomeItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+incomeItemColumns+` FROM income_items WHERE income_id = $1 ORDER BY item_type, label`, incomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []IncomeItem
	for rows.Next() {
		it, err := scanIncomeItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type CreateIncomeItemParams struct {
	IncomeID uuid.UUID
	ItemType string
	Label    string
	Amount   decimal.Decimal
}

func (q *Queries) CreateIncomeItem(ctx context.Context, arg CreateIncomeItemParams) (IncomeItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO income_items (income_id, item_type, label, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING `+incomeItemColumns,
		arg.IncomeID, arg.ItemType, arg.Label, arg.Amount)
	return scanIncomeItem(row)
}

func (q *Queries) DeleteIncomeItems(ctx context.Context, incomeID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM income_items WHERE income_id = $1`, incomeID)
	return err
}
