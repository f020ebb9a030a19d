package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIncomeStore struct {
	incomes      map[uuid.UUID]store.EmployeeIncome
	items        map[uuid.UUID][]store.IncomeItem
	deleteCalled []uuid.UUID
}

func newFakeIncomeStore() *fakeIncomeStore {
	return &fakeIncomeStore{
		incomes: make(map[uuid.UUID]store.EmployeeIncome),
		items:   make(map[uuid.UUID][]store.IncomeItem),
	}
}

func (f *fakeIncomeStore) CreateEmployeeIncome(ctx context.Context, arg store.CreateEmployeeIncomeParams) (store.EmployeeIncome, error) {
	income := store.EmployeeIncome{
		ID:              uuid.New(),
		EmployeeID:      arg.EmployeeID,
		EmployeeName:    arg.EmployeeName,
		EmployeeRole:    arg.EmployeeRole,
		Department:      arg.Department,
		Period:          arg.Period,
		BaseSalary:      arg.BaseSalary,
		TotalIncome:     arg.TotalIncome,
		TotalDeductions: arg.TotalDeductions,
		NetIncome:       arg.NetIncome,
		PaymentStatus:   arg.PaymentStatus,
		PaymentMethod:   arg.PaymentMethod,
		Notes:           arg.Notes,
	}
	f.incomes[income.ID] = income
	return income, nil
}

func (f *fakeIncomeStore) UpdateEmployeeIncome(ctx context.Context, arg store.UpdateEmployeeIncomeParams) (store.EmployeeIncome, error) {
	income := f.incomes[arg.ID]
	income.ID = arg.ID
	income.EmployeeName = arg.EmployeeName
	income.EmployeeRole = arg.EmployeeRole
	income.Department = arg.Department
	income.Period = arg.Period
	income.BaseSalary = arg.BaseSalary
	income.TotalIncome = arg.TotalIncome
	income.TotalDeductions = arg.TotalDeductions
	income.NetIncome = arg.NetIncome
	income.PaymentMethod = arg.PaymentMethod
	income.Notes = arg.Notes
	f.incomes[arg.ID] = income
	return income, nil
}

func (f *fakeIncomeStore) CreateIncomeItem(ctx context.Context, arg store.CreateIncomeItemParams) (store.IncomeItem, error) {
	item := store.IncomeItem{
		ID:       uuid.New(),
		IncomeID: arg.IncomeID,
		ItemType: arg.ItemType,
		Label:    arg.Label,
		Amount:   arg.Amount,
	}
	f.items[arg.IncomeID] = append(f.items[arg.IncomeID], item)
	return item, nil
}

func (f *fakeIncomeStore) DeleteIncomeItems(ctx context.Context, incomeID uuid.UUID) error {
	f.deleteCalled = append(f.deleteCalled, incomeID)
	f.items[incomeID] = nil
	return nil
}

func newIncomeService(fs *fakeIncomeStore) (*IncomeService, *fakePool) {
	pool := &fakePool{}
	svc := NewIncomeService(pool, func(store.DBTX) IncomeStore { return fs })
	return svc, pool
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		incomes    []IncomeItemInput
		deductions []IncomeItemInput
		wantTotal  string
		wantDeduct string
		wantNet    string
	}{
		{
			name:       "base only",
			base:       "12000000",
			wantTotal:  "12000000",
			wantDeduct: "0",
			wantNet:    "12000000",
		},
		{
			name: "bonus and insurance",
			base: "12000000",
			incomes: []IncomeItemInput{
				{Label: "Harvest bonus", Amount: dec("1500000")},
				{Label: "Overtime", Amount: dec("800000")},
			},
			deductions: []IncomeItemInput{
				{Label: "Social insurance", Amount: dec("960000")},
			},
			wantTotal:  "14300000",
			wantDeduct: "960000",
			wantNet:    "13340000",
		},
		{
			name: "deductions exceed income",
			base: "1000000",
			deductions: []IncomeItemInput{
				{Label: "Salary advance", Amount: dec("1500000")},
			},
			wantTotal:  "1000000",
			wantDeduct: "1500000",
			wantNet:    "-500000",
		},
		{
			name: "fractional amounts stay exact",
			base: "1000.10",
			incomes: []IncomeItemInput{
				{Label: "Allowance", Amount: dec("0.20")},
			},
			deductions: []IncomeItemInput{
				{Label: "Tax", Amount: dec("0.30")},
			},
			wantTotal:  "1000.30",
			wantDeduct: "0.30",
			wantNet:    "1000.00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			total, deduct, net := ComputeTotals(dec(tc.base), tc.incomes, tc.deductions)
			assert.True(t, total.Equal(dec(tc.wantTotal)), "totalIncome: got %s", total)
			assert.True(t, deduct.Equal(dec(tc.wantDeduct)), "totalDeductions: got %s", deduct)
			assert.True(t, net.Equal(dec(tc.wantNet)), "netIncome: got %s", net)
		})
	}
}

func validIncomeRequest() IncomeRequest {
	return IncomeRequest{
		EmployeeID:    uuid.New(),
		EmployeeName:  "Tran Thi Mai",
		EmployeeRole:  "Staff",
		Department:    "Operations",
		Period:        "2026-08",
		BaseSalary:    dec("12000000"),
		PaymentMethod: enum.PaymentMethodBankTransfer,
		IncomeItems: []IncomeItemInput{
			{Label: "Harvest bonus", Amount: dec("1500000")},
		},
		Deductions: []IncomeItemInput{
			{Label: "Social insurance", Amount: dec("960000")},
		},
	}
}

func TestIncomeCreate(t *testing.T) {
	fs := newFakeIncomeStore()
	svc, pool := newIncomeService(fs)

	result, err := svc.Create(context.Background(), validIncomeRequest())
	require.NoError(t, err)

	assert.Equal(t, enum.PaymentStatusPending, result.Income.PaymentStatus)
	assert.True(t, result.Income.TotalIncome.Equal(dec("13500000")))
	assert.True(t, result.Income.NetIncome.Equal(dec("12540000")))

	require.Len(t, result.Items, 2)
	assert.Equal(t, enum.IncomeItemTypeIncome, result.Items[0].ItemType)
	assert.Equal(t, enum.IncomeItemTypeDeduction, result.Items[1].ItemType)

	require.Len(t, pool.txs, 1)
	assert.True(t, pool.txs[0].committed)
}

func TestIncomeUpdate_ReplacesItems(t *testing.T) {
	fs := newFakeIncomeStore()
	svc, _ := newIncomeService(fs)

	created, err := svc.Create(context.Background(), validIncomeRequest())
	require.NoError(t, err)
	id := created.Income.ID

	req := validIncomeRequest()
	req.IncomeItems = []IncomeItemInput{{Label: "Overtime", Amount: dec("500000")}}
	req.Deductions = nil

	updated, err := svc.Update(context.Background(), id, req)
	require.NoError(t, err)

	assert.Contains(t, fs.deleteCalled, id, "old items must be cleared before rewrite")
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Overtime", updated.Items[0].Label)
	assert.True(t, updated.Income.TotalIncome.Equal(dec("12500000")))
	assert.True(t, updated.Income.TotalDeductions.Equal(decimal.Zero))
	assert.True(t, updated.Income.NetIncome.Equal(dec("12500000")))
}

func TestIncomeValidation(t *testing.T) {
	fs := newFakeIncomeStore()
	svc, pool := newIncomeService(fs)

	tests := []struct {
		name    string
		mutate  func(*IncomeRequest)
		wantErr error
	}{
		{
			name:    "negative base salary",
			mutate:  func(r *IncomeRequest) { r.BaseSalary = dec("-1") },
			wantErr: ErrNegativeSalary,
		},
		{
			name: "blank item label",
			mutate: func(r *IncomeRequest) {
				r.IncomeItems = []IncomeItemInput{{Label: "", Amount: dec("100")}}
			},
			wantErr: ErrEmptyItemLabel,
		},
		{
			name: "negative deduction amount",
			mutate: func(r *IncomeRequest) {
				r.Deductions = []IncomeItemInput{{Label: "Tax", Amount: dec("-100")}}
			},
			wantErr: ErrNegativeAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validIncomeRequest()
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsIncomeValidationError(err))
		})
	}

	assert.Empty(t, pool.txs, "validation failures must not open a transaction")
}
