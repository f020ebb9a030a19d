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
)

// CategoryStore defines the database methods needed by category handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type CategoryStore interface {
	GetCategory(ctx context.Context, id uuid.UUID) (store.Category, error)
	ListCategories(ctx context.Context, arg store.ListCategoriesParams) ([]store.Category, error)
	CountCategories(ctx context.Context, arg store.ListCategoriesParams) (int64, error)
	ListCategoryChildren(ctx context.Context, parentID uuid.UUID) ([]store.Category, error)
	CountCategoryChildren(ctx context.Context, parentID uuid.UUID) (int64, error)
	CreateCategory(ctx context.Context, arg store.CreateCategoryParams) (store.Category, error)
	UpdateCategory(ctx context.Context, arg store.UpdateCategoryParams) (store.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CategoryHandler handles category CRUD endpoints. The hierarchy is one level
// deep: top-level categories may carry children, children may not.
type CategoryHandler struct {
	store     CategoryStore
	uploadDir string
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(store CategoryStore, uploadDir string) *CategoryHandler {
	return &CategoryHandler{store: store, uploadDir: uploadDir}
}

// RegisterRoutes registers category CRUD endpoints on the given Chi router.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type categoryRequest struct {
	ParentID    string `json:"parent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type categoryResponse struct {
	ID          uuid.UUID          `json:"id"`
	ParentID    *string            `json:"parent_id"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	ImageURL    *string            `json:"image_url"`
	Status      string             `json:"status"`
	Children    []categoryResponse `json:"children,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toCategoryResponse(c store.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		ParentID:    uuidPtr(c.ParentID),
		Name:        c.Name,
		Description: textPtr(c.Description),
		ImageURL:    textPtr(c.ImageURL),
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
	}
}

// parseCategoryRequest reads either a JSON body or a multipart form with an
// optional `attachment` image file.
func (h *CategoryHandler) parseCategoryRequest(r *http.Request) (categoryRequest, pgtype.Text, error) {
	var req categoryRequest
	var image pgtype.Text

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return req, image, err
		}
		req.ParentID = r.FormValue("parent_id")
		req.Name = r.FormValue("name")
		req.Description = r.FormValue("description")
		req.Status = r.FormValue("status")

		path, err := saveUpload(r, "attachment", h.uploadDir)
		if err != nil {
			return req, image, err
		}
		image = nullableText(path)
		return req, image, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, image, err
}

// --- Handlers ---

// List returns a page of top-level categories with their children nested.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListCategoriesParams{
		Keyword: queryText(r, "keyword"),
		Status:  queryText(r, "status"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	categories, err := h.store.ListCategories(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list categories", err)
		return
	}
	total, err := h.store.CountCategories(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count categories", err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		cr := toCategoryResponse(c)
		children, err := h.store.ListCategoryChildren(r.Context(), c.ID)
		if err != nil {
			writeInternalError(w, "list category children", err)
			return
		}
		cr.Children = make([]categoryResponse, len(children))
		for j, child := range children {
			cr.Children[j] = toCategoryResponse(child)
		}
		resp[i] = cr
	}

	writePage(w, resp, p, total)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	category, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeInternalError(w, "get category", err)
		return
	}

	resp := toCategoryResponse(category)
	children, err := h.store.ListCategoryChildren(r.Context(), id)
	if err != nil {
		writeInternalError(w, "list category children", err)
		return
	}
	resp.Children = make([]categoryResponse, len(children))
	for i, child := range children {
		resp.Children[i] = toCategoryResponse(child)
	}

	writeResponse(w, http.StatusOK, resp)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, image, err := h.parseCategoryRequest(r)
	if err != nil {
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

	parentID, ok := h.resolveParent(w, r, req.ParentID)
	if !ok {
		return
	}

	category, err := h.store.CreateCategory(r.Context(), store.CreateCategoryParams{
		ParentID:    parentID,
		Name:        req.Name,
		Description: nullableText(req.Description),
		ImageURL:    image,
		Status:      req.Status,
	})
	if err != nil {
		writeInternalError(w, "create category", err)
		return
	}

	writeResponse(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	req, image, err := h.parseCategoryRequest(r)
	if err != nil {
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

	parentID, ok := h.resolveParent(w, r, req.ParentID)
	if !ok {
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		ID:          id,
		ParentID:    parentID,
		Name:        req.Name,
		Description: nullableText(req.Description),
		ImageURL:    image,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeInternalError(w, "update category", err)
		return
	}

	writeResponse(w, http.StatusOK, toCategoryResponse(category))
}

// Delete removes a category. Rejected while the category still has children
// or products referencing it.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	childCount, err := h.store.CountCategoryChildren(r.Context(), id)
	if err != nil {
		writeInternalError(w, "count category children", err)
		return
	}
	if childCount > 0 {
		writeError(w, http.StatusConflict, "category has child categories")
		return
	}

	if _, err := h.store.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "category is referenced by products")
			return
		}
		writeInternalError(w, "delete category", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveParent parses the optional parent reference and enforces the
// one-level hierarchy. Writes the error response itself on failure.
func (h *CategoryHandler) resolveParent(w http.ResponseWriter, r *http.Request, raw string) (pgtype.UUID, bool) {
	if raw == "" {
		return pgtype.UUID{}, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parent_id")
		return pgtype.UUID{}, false
	}

	parent, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "parent category not found")
			return pgtype.UUID{}, false
		}
		writeInternalError(w, "get parent category", err)
		return pgtype.UUID{}, false
	}
	if parent.ParentID.Valid {
		writeError(w, http.StatusBadRequest, "parent must be a top-level category")
		return pgtype.UUID{}, false
	}

	return pgtype.UUID{Bytes: id, Valid: true}, true
}
