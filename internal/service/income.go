package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
)

// Errors returned by the income service.
var (
	ErrEmptyItemLabel = errors.New("item label is required")
	ErrNegativeAmount = errors.New("item amount must not be negative")
	ErrNegativeSalary = errors.New("base_salary must not be negative")
)

// IsIncomeValidationError reports whether err should surface as 400 Bad Request.
func IsIncomeValidationError(err error) bool {
	return errors.Is(err, ErrEmptyItemLabel) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrNegativeSalary)
}

// IncomeStore defines the DB methods needed to write income records with
// their line items. Satisfied by *store.Queries (and its WithTx variant).
type IncomeStore interface {
	CreateEmployeeIncome(ctx context.Context, arg store.CreateEmployeeIncomeParams) (store.EmployeeIncome, error)
	UpdateEmployeeIncome(ctx context.Context, arg store.UpdateEmployeeIncomeParams) (store.EmployeeIncome, error)
	CreateIncomeItem(ctx context.Context, arg store.CreateIncomeItemParams) (store.IncomeItem, error)
	DeleteIncomeItems(ctx context.Context, incomeID uuid.UUID) error
}

// NewIncomeStore creates an IncomeStore from a DBTX (pool or tx).
type NewIncomeStore func(db store.DBTX) IncomeStore

// IncomeItemInput is one income or deduction line.
type IncomeItemInput struct {
	Label  string
	Amount decimal.Decimal
}

// IncomeRequest is the validated input for creating or updating a record.
type IncomeRequest struct {
	EmployeeID    uuid.UUID
	EmployeeName  string
	EmployeeRole  string
	Department    string
	Period        string
	BaseSalary    decimal.Decimal
	PaymentMethod string
	Notes         pgtype.Text
	IncomeItems   []IncomeItemInput
	Deductions    []IncomeItemInput
}

// IncomeResult is the written record with its items.
type IncomeResult struct {
	Income store.EmployeeIncome
	Items  []store.IncomeItem
}

// IncomeService computes payroll totals and persists records atomically.
type IncomeService struct {
	pool     TxBeginner
	newStore NewIncomeStore
}

// NewIncomeService creates a new IncomeService.
func NewIncomeService(pool TxBeginner, newStore NewIncomeStore) *IncomeService {
	return &IncomeService{pool: pool, newStore: newStore}
}

// ComputeTotals derives the three totals from the base salary and line items:
// totalIncome = baseSalary + Σ income items, netIncome = totalIncome − Σ deductions.
func ComputeTotals(base decimal.Decimal, incomes, deductions []IncomeItemInput) (totalIncome, totalDeductions, netIncome decimal.Decimal) {
	totalIncome = base
	for _, it := range incomes {
		totalIncome = totalIncome.Add(it.Amount)
	}
	totalDeductions = decimal.Zero
	for _, it := range deductions {
		totalDeductions = totalDeductions.Add(it.Amount)
	}
	netIncome = totalIncome.Sub(totalDeductions)
	return totalIncome, totalDeductions, netIncome
}

func validateIncomeRequest(req IncomeRequest) error {
	if req.BaseSalary.IsNegative() {
		return ErrNegativeSalary
	}
	for _, it := range append(append([]IncomeItemInput{}, req.IncomeItems...), req.Deductions...) {
		if it.Label == "" {
			return ErrEmptyItemLabel
		}
		if it.Amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Create computes totals and writes the record with its items in one transaction.
func (s *IncomeService) Create(ctx context.Context, req IncomeRequest) (*IncomeResult, error) {
	if err := validateIncomeRequest(req); err != nil {
		return nil, err
	}

	totalIncome, totalDeductions, netIncome := ComputeTotals(req.BaseSalary, req.IncomeItems, req.Deductions)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.newStore(tx)
	income, err := qtx.CreateEmployeeIncome(ctx, store.CreateEmployeeIncomeParams{
		EmployeeID:      req.EmployeeID,
		EmployeeName:    req.EmployeeName,
		EmployeeRole:    req.EmployeeRole,
		Department:      req.Department,
		Period:          req.Period,
		BaseSalary:      req.BaseSalary,
		TotalIncome:     totalIncome,
		TotalDeductions: totalDeductions,
		NetIncome:       netIncome,
		PaymentStatus:   enum.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}

	items, err := s.writeItems(ctx, qtx, income.ID, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &IncomeResult{Income: income, Items: items}, nil
}

// Update recomputes totals and replaces the record's items in one transaction.
func (s *IncomeService) Update(ctx context.Context, id uuid.UUID, req IncomeRequest) (*IncomeResult, error) {
	if err := validateIncomeRequest(req); err != nil {
		return nil, err
	}

	totalIncome, totalDeductions, netIncome := ComputeTotals(req.BaseSalary, req.IncomeItems, req.Deductions)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.newStore(tx)
	income, err := qtx.UpdateEmployeeIncome(ctx, store.UpdateEmployeeIncomeParams{
		ID:              id,
		EmployeeName:    req.EmployeeName,
		EmployeeRole:    req.EmployeeRole,
		Department:      req.Department,
		Period:          req.Period,
		BaseSalary:      req.BaseSalary,
		TotalIncome:     totalIncome,
		TotalDeductions: totalDeductions,
		NetIncome:       netIncome,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := qtx.DeleteIncomeItems(ctx, id); err != nil {
		return nil, fmt.Errorf("delete income items: %w", err)
	}
	items, err := s.writeItems(ctx, qtx, id, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &IncomeResult{Income: income, Items: items}, nil
}

func (s *IncomeService) writeItems(ctx context.Context, qtx IncomeStore, incomeID uuid.UUID, req IncomeRequest) ([]store.IncomeItem, error) {
	items := make([]store.IncomeItem, 0, len(req.IncomeItems)+len(req.Deductions))
	for _, it := range req.IncomeItems {
		item, err := qtx.CreateIncomeItem(ctx, store.CreateIncomeItemParams{
			IncomeID: incomeID,
			ItemType: enum.IncomeItemTypeIncome,
			Label:    it.Label,
			Amount:   it.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("create income item: %w", err)
		}
		items = append(items, item)
	}
	for _, it := range req.Deductions {
		item, err := qtx.CreateIncomeItem(ctx, store.CreateIncomeItemParams{
			IncomeID: incomeID,
			ItemType: enum.IncomeItemTypeDeduction,
			Label:    it.Label,
			Amount:   it.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("create deduction item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
