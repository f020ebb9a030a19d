package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/hmes-platform/api/internal/store"
)

// PhaseStore defines the database methods needed by phase handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type PhaseStore interface {
	GetPhase(ctx context.Context, id uuid.UUID) (store.Phase, error)
	ListPhases(ctx context.Context) ([]store.Phase, error)
	CreatePhase(ctx context.Context, arg store.CreatePhaseParams) (store.Phase, error)
	UpdatePhase(ctx context.Context, arg store.UpdatePhaseParams) (store.Phase, error)
	DeletePhase(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// PhaseHandler handles growth phase CRUD. The phase list is small, so the
// list endpoint returns everything without pagination.
type PhaseHandler struct {
	store PhaseStore
}

// NewPhaseHandler creates a new PhaseHandler.
func NewPhaseHandler(store PhaseStore) *PhaseHandler {
	return &PhaseHandler{store: store}
}

// RegisterRoutes registers phase CRUD endpoints on the given Chi router.
func (h *PhaseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type phaseRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type phaseResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
}

func toPhaseResponse(p store.Phase) phaseResponse {
	return phaseResponse{ID: p.ID, Name: p.Name, SortOrder: p.SortOrder}
}

func (h *PhaseHandler) List(w http.ResponseWriter, r *http.Request) {
	phases, err := h.store.ListPhases(r.Context())
	if err != nil {
		writeInternalError(w, "list phases", err)
		return
	}

	resp := make([]phaseResponse, len(phases))
	for i, p := range phases {
		resp[i] = toPhaseResponse(p)
	}
	writeResponse(w, http.StatusOK, resp)
}

func (h *PhaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	phase, err := h.store.CreatePhase(r.Context(), store.CreatePhaseParams{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeInternalError(w, "create phase", err)
		return
	}

	writeResponse(w, http.StatusCreated, toPhaseResponse(phase))
}

func (h *PhaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid phase ID")
		return
	}

	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	phase, err := h.store.UpdatePhase(r.Context(), store.UpdatePhaseParams{
		ID:        id,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		writeInternalError(w, "update phase", err)
		return
	}

	writeResponse(w, http.StatusOK, toPhaseResponse(phase))
}

func (h *PhaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid phase ID")
		return
	}

	if _, err := h.store.DeletePhase(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "phase is referenced by plant targets")
			return
		}
		writeInternalError(w, "delete phase", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
