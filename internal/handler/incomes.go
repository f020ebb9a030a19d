package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/service"
	"github.com/hmes-platform/api/internal/store"
	"github.com/hmes-platform/api/internal/workflow"
	"github.com/shopspring/decimal"
)

// IncomeStore defines the database methods needed by income handlers beyond
// the writes that go through the income service.
// Satisfied by *store.Queries; narrow interface for testability.
type IncomeStore interface {
	GetEmployeeIncome(ctx context.Context, id uuid.UUID) (store.EmployeeIncome, error)
	ListEmployeeIncomes(ctx context.Context, arg store.ListEmployeeIncomesParams) ([]store.EmployeeIncome, error)
	CountEmployeeIncomes(ctx context.Context, arg store.ListEmployeeIncomesParams) (int64, error)
	UpdateIncomePaymentStatus(ctx context.Context, arg store.UpdateIncomePaymentStatusParams) (store.EmployeeIncome, error)
	DeleteEmployeeIncome(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListIncomeItems(ctx context.Context, incomeID uuid.UUID) ([]store.IncomeItem, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
}

// IncomeWriter persists income records with recomputed totals.
// Satisfied by *service.IncomeService.
type IncomeWriter interface {
	Create(ctx context.Context, req service.IncomeRequest) (*service.IncomeResult, error)
	Update(ctx context.Context, id uuid.UUID, req service.IncomeRequest) (*service.IncomeResult, error)
}

// IncomeHandler handles employee income endpoints (admin only).
type IncomeHandler struct {
	store  IncomeStore
	writer IncomeWriter
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(store IncomeStore, writer IncomeWriter) *IncomeHandler {
	return &IncomeHandler{store: store, writer: writer}
}

// RegisterRoutes registers income endpoints on the given Chi router.
func (h *IncomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type incomeItemRequest struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type incomeRequest struct {
	EmployeeID    string              `json:"employee_id"`
	Department    string              `json:"department"`
	Period        string              `json:"period"`
	BaseSalary    decimal.Decimal     `json:"base_salary"`
	PaymentMethod string              `json:"payment_method"`
	Notes         string              `json:"notes"`
	IncomeItems   []incomeItemRequest `json:"income_items"`
	Deductions    []incomeItemRequest `json:"deductions"`
}

type incomeStatusRequest struct {
	Status string `json:"status"`
}

type incomeItemResponse struct {
	ID     uuid.UUID       `json:"id"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type incomeResponse struct {
	ID              uuid.UUID       `json:"id"`
	EmployeeID      uuid.UUID       `json:"employee_id"`
	EmployeeName    string          `json:"employee_name"`
	EmployeeRole    string          `json:"employee_role"`
	Department      string          `json:"department"`
	Period          string          `json:"period"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetIncome       decimal.Decimal `json:"net_income"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentDate     *time.Time      `json:"payment_date"`
	Notes           *string         `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

type incomeDetailResponse struct {
	incomeResponse
	IncomeItems []incomeItemResponse `json:"income_items"`
	Deductions  []incomeItemResponse `json:"deductions"`
}

func toIncomeResponse(in store.EmployeeIncome) incomeResponse {
	resp := incomeResponse{
		ID:              in.ID,
		EmployeeID:      in.EmployeeID,
		EmployeeName:    in.EmployeeName,
		EmployeeRole:    in.EmployeeRole,
		Department:      in.Department,
		Period:          in.Period,
		BaseSalary:      in.BaseSalary,
		TotalIncome:     in.TotalIncome,
		TotalDeductions: in.TotalDeductions,
		NetIncome:       in.NetIncome,
		PaymentStatus:   in.PaymentStatus,
		PaymentMethod:   in.PaymentMethod,
		Notes:           textPtr(in.Notes),
		CreatedAt:       in.CreatedAt,
	}
	if in.PaymentDate.Valid {
		resp.PaymentDate = &in.PaymentDate.Time
	}
	return resp
}

func toIncomeDetailResponse(in store.EmployeeIncome, items []store.IncomeItem) incomeDetailResponse {
	resp := incomeDetailResponse{
		incomeResponse: toIncomeResponse(in),
		IncomeItems:    []incomeItemResponse{},
		Deductions:     []incomeItemResponse{},
	}
	for _, it := range items {
		ir := incomeItemResponse{ID: it.ID, Label: it.Label, Amount: it.Amount}
		if it.ItemType == enum.IncomeItemTypeDeduction {
			resp.Deductions = append(resp.Deductions, ir)
		} else {
			resp.IncomeItems = append(resp.IncomeItems, ir)
		}
	}
	return resp
}

// toServiceRequest validates references and converts the payload for the
// income service. Writes the error response itself on failure.
func (h *IncomeHandler) toServiceRequest(w http.ResponseWriter, r *http.Request, req incomeRequest) (service.IncomeRequest, bool) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee_id")
		return service.IncomeRequest{}, false
	}
	if req.Period == "" {
		writeError(w, http.StatusBadRequest, "period is required")
		return service.IncomeRequest{}, false
	}
	if !enum.IsPaymentMethod(req.PaymentMethod) {
		writeError(w, http.StatusBadRequest, "invalid payment_method")
		return service.IncomeRequest{}, false
	}

	employee, err := h.store.GetUserByID(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "employee not found")
			return service.IncomeRequest{}, false
		}
		writeInternalError(w, "get employee", err)
		return service.IncomeRequest{}, false
	}

	svcReq := service.IncomeRequest{
		EmployeeID:    employee.ID,
		EmployeeName:  employee.FullName,
		EmployeeRole:  employee.Role,
		Department:    req.Department,
		Period:        req.Period,
		BaseSalary:    req.BaseSalary,
		PaymentMethod: req.PaymentMethod,
		Notes:         nullableText(req.Notes),
		IncomeItems:   make([]service.IncomeItemInput, len(req.IncomeItems)),
		Deductions:    make([]service.IncomeItemInput, len(req.Deductions)),
	}
	for i, it := range req.IncomeItems {
		svcReq.IncomeItems[i] = service.IncomeItemInput{Label: it.Label, Amount: it.Amount}
	}
	for i, it := range req.Deductions {
		svcReq.Deductions[i] = service.IncomeItemInput{Label: it.Label, Amount: it.Amount}
	}
	return svcReq, true
}

// --- Handlers ---

func (h *IncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListEmployeeIncomesParams{
		Keyword:       queryText(r, "keyword"),
		PaymentStatus: queryText(r, "paymentStatus"),
		Period:        queryText(r, "period"),
		Limit:         p.Limit(),
		Offset:        p.Offset(),
	}

	incomes, err := h.store.ListEmployeeIncomes(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list employee incomes", err)
		return
	}
	total, err := h.store.CountEmployeeIncomes(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count employee incomes", err)
		return
	}

	resp := make([]incomeResponse, len(incomes))
	for i, in := range incomes {
		resp[i] = toIncomeResponse(in)
	}
	writePage(w, resp, p, total)
}

func (h *IncomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income ID")
		return
	}

	income, err := h.store.GetEmployeeIncome(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		writeInternalError(w, "get employee income", err)
		return
	}

	items, err := h.store.ListIncomeItems(r.Context(), id)
	if err != nil {
		writeInternalError(w, "list income items", err)
		return
	}

	writeResponse(w, http.StatusOK, toIncomeDetailResponse(income, items))
}

func (h *IncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq, ok := h.toServiceRequest(w, r, req)
	if !ok {
		return
	}

	result, err := h.writer.Create(r.Context(), svcReq)
	if err != nil {
		if service.IsIncomeValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, "create employee income", err)
		return
	}

	writeResponse(w, http.StatusCreated, toIncomeDetailResponse(result.Income, result.Items))
}

// Update rewrites the record and its items, recomputing totals. Allowed only
// while the record is still Pending; later corrections go through the
// status workflow (revert to Pending first).
func (h *IncomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income ID")
		return
	}

	existing, err := h.store.GetEmployeeIncome(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		writeInternalError(w, "get employee income", err)
		return
	}
	if existing.PaymentStatus != enum.PaymentStatusPending {
		writeError(w, http.StatusConflict, "only pending records can be edited")
		return
	}

	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq, ok := h.toServiceRequest(w, r, req)
	if !ok {
		return
	}

	result, err := h.writer.Update(r.Context(), id, svcReq)
	if err != nil {
		if service.IsIncomeValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, "update employee income", err)
		return
	}

	writeResponse(w, http.StatusOK, toIncomeDetailResponse(result.Income, result.Items))
}

// UpdateStatus applies a payment status transition. Entering Completed stamps
// the payment date; reverting to Pending or cancelling clears it.
func (h *IncomeHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income ID")
		return
	}

	var req incomeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !workflow.IsPaymentStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	income, err := h.store.GetEmployeeIncome(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		writeInternalError(w, "get employee income", err)
		return
	}

	if err := workflow.ValidateIncomeTransition(income.PaymentStatus, req.Status); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	paymentDate := income.PaymentDate
	switch {
	case workflow.SetsPaymentDate(req.Status):
		paymentDate = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	case workflow.ClearsPaymentDate(req.Status):
		paymentDate = pgtype.Timestamptz{}
	}

	updated, err := h.store.UpdateIncomePaymentStatus(r.Context(), store.UpdateIncomePaymentStatusParams{
		ID:            id,
		PaymentStatus: req.Status,
		PaymentDate:   paymentDate,
		FromStatus:    income.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "payment status changed, retry")
			return
		}
		writeInternalError(w, "update payment status", err)
		return
	}

	writeResponse(w, http.StatusOK, toIncomeResponse(updated))
}

// Delete removes a record that has not entered payment processing.
func (h *IncomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid income ID")
		return
	}

	income, err := h.store.GetEmployeeIncome(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		writeInternalError(w, "get employee income", err)
		return
	}

	if !workflow.IncomeDeletable(income.PaymentStatus) {
		writeError(w, http.StatusConflict, "only pending records can be deleted")
		return
	}

	if _, err := h.store.DeleteEmployeeIncome(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "income record not found")
			return
		}
		writeInternalError(w, "delete employee income", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
