package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
)

// TargetValueStore defines the database methods needed by target value handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type TargetValueStore interface {
	GetTargetValue(ctx context.Context, id uuid.UUID) (store.TargetValue, error)
	ListTargetValues(ctx context.Context, arg store.ListTargetValuesParams) ([]store.TargetValue, error)
	CountTargetValues(ctx context.Context, arg store.ListTargetValuesParams) (int64, error)
	CreateTargetValue(ctx context.Context, arg store.CreateTargetValueParams) (store.TargetValue, error)
	UpdateTargetValue(ctx context.Context, arg store.UpdateTargetValueParams) (store.TargetValue, error)
	DeleteTargetValue(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CountTargetValueAssociations(ctx context.Context, targetValueID uuid.UUID) (int64, error)
}

// TargetValueHandler handles measurement target CRUD endpoints.
type TargetValueHandler struct {
	store TargetValueStore
}

// NewTargetValueHandler creates a new TargetValueHandler.
func NewTargetValueHandler(store TargetValueStore) *TargetValueHandler {
	return &TargetValueHandler{store: store}
}

// RegisterRoutes registers target value CRUD endpoints on the given Chi router.
func (h *TargetValueHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type targetValueRequest struct {
	Type     string          `json:"type"`
	MinValue decimal.Decimal `json:"min_value"`
	MaxValue decimal.Decimal `json:"max_value"`
}

type targetValueResponse struct {
	ID       uuid.UUID       `json:"id"`
	Type     string          `json:"type"`
	MinValue decimal.Decimal `json:"min_value"`
	MaxValue decimal.Decimal `json:"max_value"`
}

func toTargetValueResponse(tv store.TargetValue) targetValueResponse {
	return targetValueResponse{ID: tv.ID, Type: tv.Type, MinValue: tv.MinValue, MaxValue: tv.MaxValue}
}

func validateTargetValueRequest(w http.ResponseWriter, req targetValueRequest) bool {
	if !enum.IsMeasurementType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid measurement type")
		return false
	}
	// min > max can never describe a valid range.
	if req.MinValue.GreaterThan(req.MaxValue) {
		writeError(w, http.StatusBadRequest, "min_value must not exceed max_value")
		return false
	}
	return true
}

func (h *TargetValueHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListTargetValuesParams{
		Type:    queryText(r, "type"),
		Keyword: queryText(r, "keyword"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	targets, err := h.store.ListTargetValues(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list target values", err)
		return
	}
	total, err := h.store.CountTargetValues(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count target values", err)
		return
	}

	resp := make([]targetValueResponse, len(targets))
	for i, tv := range targets {
		resp[i] = toTargetValueResponse(tv)
	}
	writePage(w, resp, p, total)
}

func (h *TargetValueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target value ID")
		return
	}

	target, err := h.store.GetTargetValue(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "target value not found")
			return
		}
		writeInternalError(w, "get target value", err)
		return
	}

	writeResponse(w, http.StatusOK, toTargetValueResponse(target))
}

func (h *TargetValueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req targetValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateTargetValueRequest(w, req) {
		return
	}

	target, err := h.store.CreateTargetValue(r.Context(), store.CreateTargetValueParams{
		Type:     req.Type,
		MinValue: req.MinValue,
		MaxValue: req.MaxValue,
	})
	if err != nil {
		writeInternalError(w, "create target value", err)
		return
	}

	writeResponse(w, http.StatusCreated, toTargetValueResponse(target))
}

func (h *TargetValueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target value ID")
		return
	}

	var req targetValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validateTargetValueRequest(w, req) {
		return
	}

	current, err := h.store.GetTargetValue(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "target value not found")
			return
		}
		writeInternalError(w, "get target value", err)
		return
	}
	// A type change under live associations would let a plant carry two
	// targets of the same measurement type.
	if req.Type != current.Type {
		refs, err := h.store.CountTargetValueAssociations(r.Context(), id)
		if err != nil {
			writeInternalError(w, "count target value associations", err)
			return
		}
		if refs > 0 {
			writeError(w, http.StatusConflict, "type cannot change while assigned to plants")
			return
		}
	}

	target, err := h.store.UpdateTargetValue(r.Context(), store.UpdateTargetValueParams{
		ID:       id,
		Type:     req.Type,
		MinValue: req.MinValue,
		MaxValue: req.MaxValue,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "target value not found")
			return
		}
		writeInternalError(w, "update target value", err)
		return
	}

	writeResponse(w, http.StatusOK, toTargetValueResponse(target))
}

// Delete removes a target value. Rejected while any plant still references it.
func (h *TargetValueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target value ID")
		return
	}

	refs, err := h.store.CountTargetValueAssociations(r.Context(), id)
	if err != nil {
		writeInternalError(w, "count target value associations", err)
		return
	}
	if refs > 0 {
		writeError(w, http.StatusConflict, "target value is assigned to plants")
		return
	}

	if _, err := h.store.DeleteTargetValue(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "target value not found")
			return
		}
		writeInternalError(w, "delete target value", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
