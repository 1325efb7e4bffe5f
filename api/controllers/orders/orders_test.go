package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/angelmondragon/orderstock/internal/orders"
	"github.com/angelmondragon/orderstock/pkg/db/models"
	"github.com/angelmondragon/orderstock/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
)

type stubService struct {
	create   func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	get      func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	list     func(ctx context.Context) ([]models.Order, error)
	customer func(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	del      func(ctx context.Context, id uuid.UUID) error
}

func (s *stubService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	return s.create(ctx, input)
}

func (s *stubService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.get(ctx, id)
}

func (s *stubService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx)
}

func (s *stubService) ListOrdersForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return s.customer(ctx, customerID)
}

func (s *stubService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.del(ctx, id)
}

func withParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestCreatePassesInputThrough(t *testing.T) {
	customer, product := uuid.New(), uuid.New()
	var got internalorders.CreateOrderInput
	svc := &stubService{create: func(_ context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
		got = input
		return &models.Order{
			ID:         uuid.New(),
			CustomerID: input.CustomerID,
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			Status:     enums.OrderStatusConfirmed,
			CreatedAt:  time.Now().UTC(),
		}, nil
	}}

	body := `{"customer_id":"` + customer.String() + `","product_id":"` + product.String() + `","quantity":4}`
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, internalorders.CreateOrderInput{CustomerID: customer, ProductID: product, Quantity: 4}, got)

	var payload struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 4, payload.Data.Quantity)
	assert.Equal(t, enums.OrderStatusConfirmed, payload.Data.Status)
}

func TestCreateMapsPersistenceFailure(t *testing.T) {
	svc := &stubService{create: func(context.Context, internalorders.CreateOrderInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodePersistenceFailure, "order could not be persisted")
	}}

	body := `{"customer_id":"` + uuid.NewString() + `","product_id":"` + uuid.NewString() + `","quantity":1}`
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERSISTENCE_FAILURE")
}

func TestCreateWithoutService(t *testing.T) {
	rec := httptest.NewRecorder()
	Create(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDetailRejectsMalformedID(t *testing.T) {
	called := false
	svc := &stubService{get: func(context.Context, uuid.UUID) (*models.Order, error) {
		called = true
		return nil, nil
	}}

	rec := httptest.NewRecorder()
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), "orderId", "nope")
	Detail(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestDetailNotFound(t *testing.T) {
	id := uuid.New()
	svc := &stubService{get: func(_ context.Context, got uuid.UUID) (*models.Order, error) {
		assert.Equal(t, id, got)
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}}

	rec := httptest.NewRecorder()
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil), "orderId", id.String())
	Detail(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORDER_NOT_FOUND")
}

func TestListUsesCustomerFilter(t *testing.T) {
	customer := uuid.New()
	svc := &stubService{
		list: func(context.Context) ([]models.Order, error) {
			t.Fatal("unfiltered list should not be called")
			return nil, nil
		},
		customer: func(_ context.Context, got uuid.UUID) ([]models.Order, error) {
			assert.Equal(t, customer, got)
			return []models.Order{{ID: uuid.New(), CustomerID: customer, Quantity: 1}}, nil
		},
	}

	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders?customer_id="+customer.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data []internalorders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Data, 1)
}

func TestListEmptyIsArray(t *testing.T) {
	svc := &stubService{list: func(context.Context) ([]models.Order, error) { return nil, nil }}

	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
