package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/checkout"
	"github.com/pedrignacio/tu-kiosko/clients"
	"github.com/pedrignacio/tu-kiosko/favorites"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/statestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePayments struct {
	err      error
	amount   decimal.Decimal
	orderID  string
	response string
}

func (f *fakePayments) CreatePayment(ctx context.Context, amount decimal.Decimal, orderID string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.amount = amount
	f.orderID = orderID
	return json.RawMessage(f.response), nil
}

type testEnv struct {
	router   *gin.Engine
	catalog  *catalog.MemorySource
	carts    *cart.Manager
	orders   *orders.MemoryStore
	payments *fakePayments
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	source := catalog.NewMemorySource()
	require.NoError(t, source.Seed(ctx))

	backend := statestore.NewMemoryBackend()
	env := &testEnv{
		catalog:  source,
		carts:    cart.NewManager(backend),
		orders:   orders.NewMemoryStore(),
		payments: &fakePayments{response: `{"token":"tok","url":"https://pay.example","flowOrder":7}`},
	}

	pipeline := checkout.NewPipeline(checkout.Config{
		Pricing:    checkout.DefaultPricing(),
		NewBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}, checkout.DelaySubmitter{}, env.orders, zap.NewNop())

	reg := prometheus.NewRegistry()
	env.router = NewRouter(Dependencies{
		Catalog:   source,
		Carts:     env.carts,
		Favorites: favorites.NewManager(backend),
		Pipeline:  pipeline,
		Orders:    env.orders,
		Payments:  env.payments,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Logger:    zap.NewNop(),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) product(t *testing.T, category string) models.Product {
	t.Helper()
	list, err := e.catalog.List(context.Background(), category)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func validShipping() models.ShippingForm {
	return models.ShippingForm{
		Name:    "Ana González",
		Email:   "ana@example.cl",
		Phone:   "+56911112222",
		Address: "Los Aromos 123",
	}
}

func TestHealth(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())
}

func TestListProducts(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/products?category=bebidas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	drinks := decode[[]models.Product](t, w)
	assert.Len(t, drinks, 3)
	for _, p := range drinks {
		assert.Equal(t, "bebidas", p.Category)
	}

	w = env.do(t, http.MethodGet, "/products?category=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 9)
}

func TestGetProduct(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "snacks")

	w := env.do(t, http.MethodGet, "/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, p.Name, decode[models.Product](t, w).Name)

	w = env.do(t, http.MethodGet, "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error)
}

func TestRelatedProducts(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "bebidas")

	w := env.do(t, http.MethodGet, "/products/"+p.ID+"/related", nil)
	require.Equal(t, http.StatusOK, w.Code)
	related := decode[[]models.Product](t, w)
	assert.Len(t, related, 2)
	for _, r := range related {
		assert.NotEqual(t, p.ID, r.ID)
		assert.Equal(t, "bebidas", r.Category)
	}

	w = env.do(t, http.MethodGet, "/products/"+p.ID+"/related?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 1)

	w = env.do(t, http.MethodGet, "/products/"+p.ID+"/related?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProduct(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/products", map[string]any{
		"name": "Té verde", "price": 1590, "category": "almacen", "quantity": 12,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.CreateProductResponse](t, w)
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Product](t, w)
	assert.True(t, decimal.NewFromInt(1590).Equal(got.Price))

	w = env.do(t, http.MethodPost, "/products", map[string]any{
		"name": "Bad", "price": -1, "category": "almacen",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/products", map[string]any{"price": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type downSource struct{}

func (downSource) List(ctx context.Context, category string) ([]models.Product, error) {
	return nil, fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)
}

func (downSource) Get(ctx context.Context, id string) (models.Product, error) {
	return models.Product{}, fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)
}

func (downSource) Related(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error) {
	return nil, fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)
}

func TestCatalogUnavailable(t *testing.T) {
	router := NewRouter(Dependencies{
		Catalog:   downSource{},
		Carts:     cart.NewManager(statestore.NewMemoryBackend()),
		Favorites: favorites.NewManager(statestore.NewMemoryBackend()),
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Logger:    zap.NewNop(),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"x","category":"y"}`)))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCartFlow(t *testing.T) {
	env := setupRouter(t)
	coke := env.product(t, "bebidas")
	chips := env.product(t, "snacks")

	w := env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: coke.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: coke.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: chips.ID})
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[models.Cart](t, w)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, 3, snap.ItemCount)
	want := coke.Price.Mul(decimal.NewFromInt(2)).Add(chips.Price)
	assert.True(t, want.Equal(snap.Subtotal), "want %s got %s", want, snap.Subtotal)

	w = env.do(t, http.MethodPatch, "/sessions/s1/cart/items/"+coke.ID, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6, decode[models.Cart](t, w).ItemCount)

	w = env.do(t, http.MethodPatch, "/sessions/s1/cart/items/"+coke.ID, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[models.Cart](t, w)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, chips.ID, snap.Items[0].ID)

	w = env.do(t, http.MethodPatch, "/sessions/s1/cart/items/"+chips.ID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/sessions/s1/cart/items/"+chips.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Cart](t, w).Items)

	w = env.do(t, http.MethodGet, "/sessions/s2/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[models.Cart](t, w).ItemCount)
}

func TestAddUnknownProductToCart(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/sessions/s1/cart/items", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearCart(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "dulces")

	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: p.ID})
	w := env.do(t, http.MethodDelete, "/sessions/s1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[models.Cart](t, w)
	assert.Equal(t, 0, snap.ItemCount)
	assert.True(t, snap.Subtotal.IsZero())
}

func TestFavorites(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "almacen")

	w := env.do(t, http.MethodPost, "/sessions/s1/favorites", models.AddFavoriteRequest{ProductID: p.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode[models.Favorites](t, w).Favorites, 1)

	w = env.do(t, http.MethodPost, "/sessions/s1/favorites", models.AddFavoriteRequest{ProductID: p.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_FAVORITE", decode[models.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodGet, "/sessions/s1/favorites/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.FavoriteStatus](t, w).Favorite)

	w = env.do(t, http.MethodDelete, "/sessions/s1/favorites/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Favorites](t, w).Favorites)

	w = env.do(t, http.MethodGet, "/sessions/s1/favorites/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.FavoriteStatus](t, w).Favorite)

	env.do(t, http.MethodPost, "/sessions/s1/favorites", models.AddFavoriteRequest{ProductID: p.ID})
	w = env.do(t, http.MethodDelete, "/sessions/s1/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Favorites](t, w).Favorites)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/sessions/s1/checkout", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode[models.EmptyCartResponse](t, w)
	assert.Equal(t, "EMPTY_CART", resp.Error)
	assert.Equal(t, "/products", resp.Catalog)

	w = env.do(t, http.MethodPost, "/sessions/s1/checkout", validShipping())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutSummary(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "dulces")

	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: p.ID})
	w := env.do(t, http.MethodGet, "/sessions/s1/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Subtotal     decimal.Decimal `json:"subtotal"`
		ShippingCost decimal.Decimal `json:"shipping_cost"`
		Total        decimal.Decimal `json:"total"`
		State        string          `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, p.Price.Equal(summary.Subtotal))
	assert.True(t, decimal.NewFromInt(3000).Equal(summary.ShippingCost))
	assert.True(t, p.Price.Add(decimal.NewFromInt(3000)).Equal(summary.Total))
	assert.Equal(t, "idle", summary.State)
}

func TestCheckoutValidationKeepsCart(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "snacks")
	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: p.ID})

	form := validShipping()
	form.Email = "not-an-email"
	w := env.do(t, http.MethodPost, "/sessions/s1/checkout", form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[models.FieldErrorResponse](t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.Equal(t, "email", resp.Field)

	w = env.do(t, http.MethodGet, "/sessions/s1/cart", nil)
	assert.Equal(t, 1, decode[models.Cart](t, w).ItemCount)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	env := setupRouter(t)
	coffee := env.product(t, "almacen")
	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: coffee.ID})
	env.do(t, http.MethodPatch, "/sessions/s1/cart/items/"+coffee.ID, map[string]int{"quantity": 4})

	w := env.do(t, http.MethodGet, "/sessions/s1/confirmation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/sessions/s1/checkout", validShipping())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	confirmation := decode[models.Confirmation](t, w)
	assert.Equal(t, "Ana González", confirmation.CustomerName)
	expected := coffee.Price.Mul(decimal.NewFromInt(4))
	assert.True(t, expected.Equal(confirmation.TotalAmount), "got %s", confirmation.TotalAmount)

	w = env.do(t, http.MethodGet, "/sessions/s1/cart", nil)
	assert.Empty(t, decode[models.Cart](t, w).Items)

	w = env.do(t, http.MethodGet, "/sessions/s1/confirmation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, confirmation.OrderID, decode[models.Confirmation](t, w).OrderID)

	w = env.do(t, http.MethodGet, "/orders/"+confirmation.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decode[models.Order](t, w)
	assert.Equal(t, "s1", order.SessionID)
	assert.Len(t, order.Items, 1)
}

func TestCreatePayment(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "bebidas")
	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: p.ID})
	w := env.do(t, http.MethodPost, "/sessions/s1/checkout", validShipping())
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode[models.Confirmation](t, w).OrderID

	w = env.do(t, http.MethodPost, "/sessions/s1/orders/"+orderID+"/payment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, env.payments.response, w.Body.String())
	assert.Equal(t, orderID, env.payments.orderID)
	assert.True(t, p.Price.Add(decimal.NewFromInt(3000)).Equal(env.payments.amount))

	w = env.do(t, http.MethodPost, "/sessions/other/orders/"+orderID+"/payment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/sessions/s1/orders/unknown/payment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.payments.err = fmt.Errorf("%w: timeout", clients.ErrPaymentFailed)
	w = env.do(t, http.MethodPost, "/sessions/s1/orders/"+orderID+"/payment", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "PAYMENT_FAILED", decode[models.ErrorResponse](t, w).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupRouter(t)
	p := env.product(t, "bebidas")
	env.do(t, http.MethodPost, "/sessions/s1/cart/items", models.AddItemRequest{ProductID: p.ID})

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_cart_mutations_total{operation="add",result="ok"} 1`)
}
