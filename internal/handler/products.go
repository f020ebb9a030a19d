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

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
	CountProducts(ctx context.Context, arg store.ListProductsParams) (int64, error)
	CreateProduct(ctx context.Context, arg store.CreateProductParams) (store.Product, error)
	UpdateProduct(ctx context.Context, arg store.UpdateProductParams) (store.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetCategory(ctx context.Context, id uuid.UUID) (store.Category, error)
}

// ProductHandler handles product CRUD endpoints.
type ProductHandler struct {
	store     ProductStore
	uploadDir string
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, uploadDir string) *ProductHandler {
	return &ProductHandler{store: store, uploadDir: uploadDir}
}

// RegisterRoutes registers product CRUD endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type productRequest struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
}

type productResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toProductResponse(p store.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: textPtr(p.Description),
		Price:       p.Price,
		ImageURL:    textPtr(p.ImageURL),
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}

// parseProductRequest reads either a JSON body or a multipart form with an
// optional `mainImage` file.
func (h *ProductHandler) parseProductRequest(r *http.Request) (productRequest, pgtype.Text, error) {
	var req productRequest
	var image pgtype.Text

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return req, image, err
		}
		req.CategoryID = r.FormValue("category_id")
		req.Name = r.FormValue("name")
		req.Description = r.FormValue("description")
		req.Status = r.FormValue("status")
		if raw := r.FormValue("price"); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return req, image, err
			}
			req.Price = price
		}

		path, err := saveUpload(r, "mainImage", h.uploadDir)
		if err != nil {
			return req, image, err
		}
		image = nullableText(path)
		return req, image, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, image, err
}

func (h *ProductHandler) validateProductRequest(w http.ResponseWriter, r *http.Request, req productRequest) (uuid.UUID, bool) {
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return uuid.Nil, false
	}
	if req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return uuid.Nil, false
	}
	if !enum.IsEntityStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return uuid.Nil, false
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category_id")
		return uuid.Nil, false
	}
	if _, err := h.store.GetCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "category not found")
			return uuid.Nil, false
		}
		writeInternalError(w, "get category", err)
		return uuid.Nil, false
	}

	return categoryID, true
}

// --- Handlers ---

// List returns a page of products filtered by keyword, category, status and
// price range.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	arg := store.ListProductsParams{
		Keyword: queryText(r, "keyword"),
		Status:  queryText(r, "status"),
		Limit:   p.Limit(),
		Offset:  p.Offset(),
	}

	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid categoryId")
			return
		}
		arg.CategoryID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if raw := r.URL.Query().Get("minPrice"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid minPrice")
			return
		}
		arg.MinPrice = decimal.NullDecimal{Decimal: v, Valid: true}
	}
	if raw := r.URL.Query().Get("maxPrice"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid maxPrice")
			return
		}
		arg.MaxPrice = decimal.NullDecimal{Decimal: v, Valid: true}
	}

	products, err := h.store.ListProducts(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "list products", err)
		return
	}
	total, err := h.store.CountProducts(r.Context(), arg)
	if err != nil {
		writeInternalError(w, "count products", err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, prod := range products {
		resp[i] = toProductResponse(prod)
	}
	writePage(w, resp, p, total)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, "get product", err)
		return
	}

	writeResponse(w, http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, image, err := h.parseProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = enum.EntityStatusActive
	}

	categoryID, ok := h.validateProductRequest(w, r, req)
	if !ok {
		return
	}

	product, err := h.store.CreateProduct(r.Context(), store.CreateProductParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: nullableText(req.Description),
		Price:       req.Price,
		ImageURL:    image,
		Status:      req.Status,
	})
	if err != nil {
		writeInternalError(w, "create product", err)
		return
	}

	writeResponse(w, http.StatusCreated, toProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	req, image, err := h.parseProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoryID, ok := h.validateProductRequest(w, r, req)
	if !ok {
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), store.UpdateProductParams{
		ID:          id,
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: nullableText(req.Description),
		Price:       req.Price,
		ImageURL:    image,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, "update product", err)
		return
	}

	writeResponse(w, http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if _, err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusConflict, "product is referenced by orders")
			return
		}
		writeInternalError(w, "delete product", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
