package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/handler"
	"github.com/hmes-platform/api/internal/store"
	"github.com/shopspring/decimal"
)

type mockProductStore struct {
	products   map[uuid.UUID]store.Product
	categories map[uuid.UUID]store.Category
	orderRefs  map[uuid.UUID]int
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{
		products:   make(map[uuid.UUID]store.Product),
		categories: make(map[uuid.UUID]store.Category),
		orderRefs:  make(map[uuid.UUID]int),
	}
}

func (m *mockProductStore) GetProduct(_ context.Context, id uuid.UUID) (store.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProductStore) ListProducts(_ context.Context, arg store.ListProductsParams) ([]store.Product, error) {
	var result []store.Product
	for _, p := range m.products {
		if arg.CategoryID.Valid && p.CategoryID != uuid.UUID(arg.CategoryID.Bytes) {
			continue
		}
		if arg.MinPrice.Valid && p.Price.LessThan(arg.MinPrice.Decimal) {
			continue
		}
		if arg.MaxPrice.Valid && p.Price.GreaterThan(arg.MaxPrice.Decimal) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *mockProductStore) CountProducts(ctx context.Context, arg store.ListProductsParams) (int64, error) {
	products, _ := m.ListProducts(ctx, arg)
	return int64(len(products)), nil
}

func (m *mockProductStore) CreateProduct(_ context.Context, arg store.CreateProductParams) (store.Product, error) {
	p := store.Product{
		ID:          uuid.New(),
		CategoryID:  arg.CategoryID,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		ImageURL:    arg.ImageURL,
		Status:      arg.Status,
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *mockProductStore) UpdateProduct(_ context.Context, arg store.UpdateProductParams) (store.Product, error) {
	p, ok := m.products[arg.ID]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	p.CategoryID = arg.CategoryID
	p.Name = arg.Name
	p.Description = arg.Description
	p.Price = arg.Price
	if arg.ImageURL.Valid {
		p.ImageURL = arg.ImageURL
	}
	p.Status = arg.Status
	m.products[p.ID] = p
	return p, nil
}

func (m *mockProductStore) DeleteProduct(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.products[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	// Simulates the RESTRICT foreign key from order_items.
	if m.orderRefs[id] > 0 {
		return uuid.Nil, &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
	}
	delete(m.products, id)
	return id, nil
}

func (m *mockProductStore) GetCategory(_ context.Context, id uuid.UUID) (store.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return store.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockProductStore) addCategory() store.Category {
	c := store.Category{ID: uuid.New(), Name: "Hydroponics", Status: enum.EntityStatusActive}
	m.categories[c.ID] = c
	return c
}

func (m *mockProductStore) addProduct(categoryID uuid.UUID, price int64) store.Product {
	p := store.Product{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       "Basil seedling",
		Price:      decimal.NewFromInt(price),
		Status:     enum.EntityStatusActive,
	}
	m.products[p.ID] = p
	return p
}

func setupProductRouter(s *mockProductStore) *chi.Mux {
	h := handler.NewProductHandler(s, testUploadDir)
	r := chi.NewRouter()
	r.Route("/product", h.RegisterRoutes)
	return r
}

func TestCreateProduct_Valid(t *testing.T) {
	s := newMockProductStore()
	category := s.addCategory()
	router := setupProductRouter(s)

	rr := doRequest(t, router, "POST", "/product", map[string]interface{}{
		"category_id": category.ID.String(),
		"name":        "Basil seedling",
		"price":       "25000",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := envelopeObject(t, rr)
	if resp["category_id"] != category.ID.String() {
		t.Errorf("category_id: got %v, want %s", resp["category_id"], category.ID)
	}
	if resp["price"] != "25000" {
		t.Errorf("price: got %v, want 25000", resp["price"])
	}
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	s := newMockProductStore()
	category := s.addCategory()
	router := setupProductRouter(s)

	rr := doRequest(t, router, "POST", "/product", map[string]interface{}{
		"category_id": category.ID.String(),
		"name":        "Basil seedling",
		"price":       "-1",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := envelopeError(t, rr); msg != "price must not be negative" {
		t.Errorf("error: got %q, want 'price must not be negative'", msg)
	}
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	router := setupProductRouter(newMockProductStore())

	rr := doRequest(t, router, "POST", "/product", map[string]interface{}{
		"category_id": uuid.NewString(),
		"name":        "Orphan",
		"price":       "100",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := envelopeError(t, rr); msg != "category not found" {
		t.Errorf("error: got %q, want 'category not found'", msg)
	}
}

func TestListProducts_PriceRange(t *testing.T) {
	s := newMockProductStore()
	category := s.addCategory()
	s.addProduct(category.ID, 10000)
	s.addProduct(category.ID, 25000)
	s.addProduct(category.ID, 90000)
	router := setupProductRouter(s)

	rr := doRequest(t, router, "GET", "/product?minPrice=20000&maxPrice=50000", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	items, _ := envelopePage(t, rr)
	if len(items) != 1 {
		t.Fatalf("expected 1 product in range, got %d", len(items))
	}
}

func TestDeleteProduct_BlockedWithOrders(t *testing.T) {
	s := newMockProductStore()
	category := s.addCategory()
	p := s.addProduct(category.ID, 25000)
	s.orderRefs[p.ID] = 1
	router := setupProductRouter(s)

	rr := doRequest(t, router, "DELETE", "/product/"+p.ID.String(), nil)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if msg := envelopeError(t, rr); msg != "product is referenced by orders" {
		t.Errorf("error: got %q, want 'product is referenced by orders'", msg)
	}
}

func TestDeleteProduct_Unreferenced(t *testing.T) {
	s := newMockProductStore()
	category := s.addCategory()
	p := s.addProduct(category.ID, 25000)
	router := setupProductRouter(s)

	rr := doRequest(t, router, "DELETE", "/product/"+p.ID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
}
