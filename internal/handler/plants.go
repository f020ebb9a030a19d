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
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
)

// PlantStore defines the database methods needed by plant handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type PlantStore interface {
	GetPlant(ctx context.Context, id uuid.UUID) (store.Plant, error)
	ListPlants(ctx context.Context, arg store.ListPlantsParams) ([]store.Plant, error)
	CountPlants(ctx context.Context, arg store.ListPlantsParams) (int64, error)
	CreatePlant(ctx context.Context, arg store.CreatePlantParams) (store.Plant, error)
	UpdatePlant(ctx context.Context, arg store.UpdatePlantParams) (store.Plant, error)
	DeletePlant(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListPlantTargets(ctx context.Context, plantID uuid.UUID) ([]store.PlantTargetRow, error)
	SetPlantTarget(ctx context.Context, arg store.SetPlantTargetParams) error
	RemovePlantTarget(ctx context.Context, arg store.RemovePlantTargetParams) (int64, error)
	GetTargetValue(ctx context.Context, id uuid.UUID) (store.TargetValue, error)
	GetPhase(ctx context.Context, id uuid.UUID) (store.Phase, error)
}

// PlantHandler handles plant CRUD and target value assignment endpoints.
type PlantHandler struct {
	store PlantStore
}

// NewPlantHandler creates a new PlantHandler.
func NewPlantHandler(store PlantStore) *PlantHandler {
	return &PlantHandler{store: store}
}

// RegisterRoutes registers plant endpoints on the given Chi router.
func (h *PlantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/target-value", h.SetTarget)
	r.Delete("/{id}/target-value/{targetValueId}", h.RemoveTarget)
}

// --- Request / Response types ---

type plantRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type plantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// plantTargetGroup lists the assigned targets for one measurement type; the
// detail response contains a group for every type so unassigned ones show up
// as empty rather than missing.
type plantTargetGroup struct {
	Type    string             `json:"type"`
	Targets []plantTargetAssoc `json:"targets"`
}

type plantTargetAssoc struct {
	TargetValueID uuid.UUID       `json:"target_value_id"`
	MinValue      decimal.Decimal `json:"min_value"`
	MaxValue      decimal.Decimal `json:"max_value"`
	PhaseID       *string         `json:"phase_id"`
	PhaseName     *string         `json:"phase_name"`
}

type plantDetailResponse struct {
	plantResponse
	TargetValues []plantTargetGroup `json:"target_values"`
}

type setPlantTargetRequest struct {
	TargetValueID string `json:"target_value_id"`
	PhaseID       string `json:"phase_id"`
}

func toPlantResponse(p store.Plant) plantResponse {
	return plantResponse{ID: p.ID, Name: p.Name, Status: p.Status, CreatedAt: p.CreatedAt}
}

func groupPlantTargets(rows []store.PlantTargetRow) []plantTargetGroup {
	groups := make([]plantTargetGroup, len(enum.MeasurementTypes))
	for i, mt := range enum.MeasurementTypes {
		groups[i] = plantTargetGroup{Type: mt, Targets: []plantTargetAssoc{}}
		for _, row := range rows {
			if row.Type != mt {
				continue
			}
			groups[i].Targets = append(groups[i].Targets, plantTargetAssoc{
				TargetValueID: row.TargetValueID,
				MinValue:      row.MinValue,
				MaxValue:      row.MaxValue,
				PhaseID:       uuidPtr(row.PhaseID),
				PhaseName:     textPtr(row.PhaseName),
			})
		}
	}
	return groups
}

// --- Handlers ---

func (h *PlantHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListPlantsParams{
		Keyword: queryText(r, "keyword"),
		Status:  queryText(r, "status"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	plants, err := h.store.ListPlants(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list plants", err)
		return
	}
	total, err := h.store.CountPlants(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count plants", err)
		return
	}

	resp := make([]plantResponse, len(plants))
	for i, plant := range plants {
		resp[i] = toPlantResponse(plant)
	}
	writePage(w, resp, p, total)
}

// Get returns the plant with its target associations grouped per measurement type.
func (h *PlantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant ID")
		return
	}

	plant, err := h.store.GetPlant(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		writeInternalError(w, "get plant", err)
		return
	}

	targets, err := h.store.ListPlantTargets(r.Context(), id)
	if err != nil {
		writeInternalError(w, "list plant targets", err)
		return
	}

	writeResponse(w, http.StatusOK, plantDetailResponse{
		plantResponse: toPlantResponse(plant),
		TargetValues:  groupPlantTargets(targets),
	})
}

func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req plantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Status == "" {
		req.Status = enum.EntityStatusActive
	}
	if !enum.IsEntityStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	plant, err := h.store.CreatePlant(r.Context(), store.CreatePlantParams{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		writeInternalError(w, "create plant", err)
		return
	}

	writeResponse(w, http.StatusCreated, toPlantResponse(plant))
}

func (h *PlantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant ID")
		return
	}

	var req plantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !enum.IsEntityStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	plant, err := h.store.UpdatePlant(r.Context(), store.UpdatePlantParams{
		ID:     id,
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		writeInternalError(w, "update plant", err)
		return
	}

	writeResponse(w, http.StatusOK, toPlantResponse(plant))
}

func (h *PlantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant ID")
		return
	}

	if _, err := h.store.DeletePlant(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		writeInternalError(w, "delete plant", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetTarget assigns a target value to the plant, optionally scoped to a growth
// phase. Assigning a target whose measurement type already has an association
// for the same phase replaces it; the plant never carries two targets for one
// type/phase pair.
func (h *PlantHandler) SetTarget(w http.ResponseWriter, r *http.Request) {
	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant ID")
		return
	}

	var req setPlantTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetID, err := uuid.Parse(req.TargetValueID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_value_id")
		return
	}

	if _, err := h.store.GetPlant(r.Context(), plantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		writeInternalError(w, "get plant", err)
		return
	}

	target, err := h.store.GetTargetValue(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "target value not found")
			return
		}
		writeInternalError(w, "get target value", err)
		return
	}

	var phaseID pgtype.UUID
	if req.PhaseID != "" {
		pid, err := uuid.Parse(req.PhaseID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid phase_id")
			return
		}
		if _, err := h.store.GetPhase(r.Context(), pid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "phase not found")
				return
			}
			writeInternalError(w, "get phase", err)
			return
		}
		phaseID = pgtype.UUID{Bytes: pid, Valid: true}
	}

	if err := h.store.SetPlantTarget(r.Context(), store.SetPlantTargetParams{
		PlantID:       plantID,
		TargetValueID: targetID,
		Type:          target.Type,
		PhaseID:       phaseID,
	}); err != nil {
		writeInternalError(w, "set plant target", err)
		return
	}

	targets, err := h.store.ListPlantTargets(r.Context(), plantID)
	if err != nil {
		writeInternalError(w, "list plant targets", err)
		return
	}
	writeResponse(w, http.StatusOK, groupPlantTargets(targets))
}

// RemoveTarget drops the association between the plant and a target value.
// The optional phaseId query param selects the phase-scoped association;
// without it the global one is removed.
func (h *PlantHandler) RemoveTarget(w http.ResponseWriter, r *http.Request) {
	plantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant ID")
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "targetValueId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target value ID")
		return
	}

	var phaseID pgtype.UUID
	if raw := r.URL.Query().Get("phaseId"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid phaseId")
			return
		}
		phaseID = pgtype.UUID{Bytes: pid, Valid: true}
	}

	removed, err := h.store.RemovePlantTarget(r.Context(), store.RemovePlantTargetParams{
		PlantID:       plantID,
		TargetValueID: targetID,
		PhaseID:       phaseID,
	})
	if err != nil {
		writeInternalError(w, "remove plant target", err)
		return
	}
	if removed == 0 {
		writeError(w, http.StatusNotFound, "association not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
