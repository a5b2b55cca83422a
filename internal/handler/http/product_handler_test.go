package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clientsync/backoffice/internal/product"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, p *product.Product) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, id int64, upd product.Update) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newProductRouter(repo product.Repository) *chi.Mux {
	router := chi.NewRouter()
	NewProductHandler(repo).RegisterRoutes(router)
	return router
}

func TestProductHandler_Create(t *testing.T) {
	repo := new(mockProductRepo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *product.Product) bool {
		return p.Name == "Teclado" && p.Price.Equal(decimal.RequireFromString("10.00")) && p.Active
	})).Return(int64(20), nil)

	router := newProductRouter(repo)

	body := `{"name": "Teclado", "price": "10.00", "description": "mecánico", "stock": 5}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"name":"Teclado"`)
	repo.AssertExpectations(t)
}

func TestProductHandler_Create_NonPositivePrice(t *testing.T) {
	repo := new(mockProductRepo)
	router := newProductRouter(repo)

	body := `{"name": "Teclado", "price": "0", "stock": 5}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductHandler_Create_UnknownFieldRejected(t *testing.T) {
	repo := new(mockProductRepo)
	router := newProductRouter(repo)

	body := `{"name": "Teclado", "price": "10.00", "color": "negro"}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	repo := new(mockProductRepo)
	repo.On("GetByID", mock.Anything, int64(99)).Return(nil, product.ErrNotFound)
	router := newProductRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/products/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Product not found")
}

func TestProductHandler_Get_InvalidID(t *testing.T) {
	repo := new(mockProductRepo)
	router := newProductRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/products/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
