package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"self-checkout/cart"
	"self-checkout/checkout"
	"self-checkout/database"
	"self-checkout/models"
	"self-checkout/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) last() models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type testServer struct {
	router *gin.Engine
	store  *database.Store
	events *recorder
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)
	require.NoError(t, store.UpsertProducts([]models.Product{
		{ID: "cola-can", Name: "Cola Can", Price: 14.0, Category: "beverages", Stock: 5, MinStock: 2},
		{ID: "crystal_water", Name: "Crystal Water", Price: 5.0, Category: "beverages", Stock: 0, MinStock: 3},
		{ID: "lays-flat-original", Name: "Lay's Flat Original", Price: 20.0, Category: "snacks", Stock: 10, MinStock: 2},
	}))

	rec := &recorder{}
	ledger := cart.NewLedger(cart.NewStoreFinder(store, nil))
	svc := checkout.NewService(store, ledger, checkout.WithPublisher(rec))
	h := NewHandler(store, ledger, svc, rec, nil)

	r := gin.New()
	h.RegisterRoutes(r, secret)
	return &testServer{router: r, store: store, events: rec}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAddToCart(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.AddToCartResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Added 3x Cola Can to cart", resp.Message)
	assert.Len(t, resp.ItemsAdded, 3)
	assert.Equal(t, 3, resp.CartSummary.TotalItems)
	require.Len(t, resp.CartSummary.Items, 1)
	assert.Equal(t, 3, resp.CartSummary.Items[0].Quantity)

	e := s.events.last()
	assert.Equal(t, models.EventCartUpdated, e.Type)
	assert.Equal(t, 3, *e.CartSize)
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola_can"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.AddToCartResponse](t, w)
	assert.Equal(t, "Added 1x Cola Can to cart", resp.Message)
	assert.Equal(t, "cola-can", resp.ItemsAdded[0].ProductID)
}

func TestAddToCartErrors(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Product ghost not found"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "quantity": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient stock for Cola Can","requested":9,"available":5}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/cart", nil)
	assert.Zero(t, decode[models.CartSummary](t, w).TotalItems)
}

func TestAddBatchToCart(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/add-batch-to-cart", gin.H{"items": []gin.H{
		{"product_id": "cola-can", "quantity": 1},
		{"product_id": "crystal_water", "quantity": 1},
		{"product_id": "lays-flat-original", "quantity": 1},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.AddBatchResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.ItemsAdded)
	assert.Equal(t, []string{"Insufficient stock for Crystal Water"}, resp.Errors)
	assert.Equal(t, 2, resp.CartSummary.TotalItems)
	assert.Equal(t, models.EventBatchAdded, s.events.last().Type)
}

func TestAddBatchAllFailed(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/api/add-batch-to-cart", gin.H{"items": []gin.H{{"product_id": "ghost"}}})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.AddBatchResponse](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"Product ghost not found"}, resp.Errors)
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "quantity": 2, "session_id": "lane-2"})

	w := s.do(t, http.MethodDelete, "/api/cart/cola-can?session_id=lane-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		CartSummary models.CartSummary `json:"cart_summary"`
	}](t, w)
	assert.Equal(t, 1, body.CartSummary.TotalItems)

	w = s.do(t, http.MethodDelete, "/api/cart/lays-flat-original?session_id=lane-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Item not found in cart"}`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/cart?session_id=lane-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EventCartCleared, s.events.last().Type)

	w = s.do(t, http.MethodGet, "/api/cart?session_id=lane-2", nil)
	summary := decode[models.CartSummary](t, w)
	assert.Equal(t, "lane-2", summary.SessionID)
	assert.Zero(t, summary.TotalItems)
}

func TestCheckoutAndConfirm(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "quantity": 3})

	w := s.do(t, http.MethodPost, "/api/checkout-cart", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payment := decode[models.PendingPayment](t, w)
	assert.InDelta(t, 42.0, payment.Subtotal, 1e-9)
	assert.InDelta(t, 2.94, payment.Tax, 1e-9)
	assert.InDelta(t, 44.94, payment.Total, 1e-9)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "PAYMENT|44.94|"+payment.PaymentID, payment.QRPayload)

	w = s.do(t, http.MethodGet, "/api/cart", nil)
	assert.Zero(t, decode[models.CartSummary](t, w).TotalItems)

	w = s.do(t, http.MethodGet, "/api/payments/"+payment.PaymentID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/confirm-payment/"+payment.PaymentID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sale := decode[models.Sale](t, w)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, payment.PaymentID, sale.PaymentID)
	assert.InDelta(t, 44.94, sale.Total, 1e-9)
	assert.NotContains(t, w.Body.String(), `"sale":`)

	product, err := s.store.Product("cola-can")
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)

	w = s.do(t, http.MethodPost, "/api/confirm-payment/"+payment.PaymentID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Payment already processed"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/confirm-payment/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Payment not found"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Sale](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	analytics := decode[models.Analytics](t, w)
	assert.Equal(t, 1, analytics.TotalSales)
	assert.Equal(t, 1, analytics.TodaySales)
	assert.Equal(t, 2, analytics.LowStockCount)
}

func TestCheckoutSessionFromBody(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can", "session_id": "lane-3"})

	w := s.do(t, http.MethodPost, "/api/checkout-cart", gin.H{"session_id": "lane-3"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lane-3", decode[models.PendingPayment](t, w).SessionID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(t, http.MethodPost, "/api/checkout-cart", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Cart is empty"}`, w.Body.String())
}

func TestCancelPayment(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodPost, "/api/add-to-cart", gin.H{"product_id": "cola-can"})
	payment := decode[models.PendingPayment](t, s.do(t, http.MethodPost, "/api/checkout-cart", nil))

	w := s.do(t, http.MethodPost, "/api/payments/"+payment.PaymentID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/confirm-payment/"+payment.PaymentID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Payment was cancelled"}`, w.Body.String())
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 3)

	w = s.do(t, http.MethodGet, "/api/products/lays-flat-original", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lay's Flat Original", decode[models.Product](t, w).Name)

	w = s.do(t, http.MethodGet, "/api/products/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	low := decode[[]models.Product](t, w)
	require.Len(t, low, 1)
	assert.Equal(t, "crystal_water", low[0].ID)
}

func TestRestockRequiresOperator(t *testing.T) {
	s := newTestServer(t, "secret")

	w := s.do(t, http.MethodPost, "/api/restock/crystal_water", gin.H{"quantity": 4})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.IssueToken("secret", "lane-1", utils.RoleOperator, time.Hour)
	require.NoError(t, err)
	auth := []string{"Authorization", "Bearer " + token}

	w = s.do(t, http.MethodPost, "/api/restock/crystal_water", gin.H{"quantity": 4}, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(4), decode[map[string]any](t, w)["new_stock"])
	assert.Equal(t, models.EventStockUpdate, s.events.last().Type)

	w = s.do(t, http.MethodPost, "/api/restock/crystal_water", gin.H{"quantity": 0}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/restock/ghost", gin.H{"quantity": 1}, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Product ghost not found"}`, w.Body.String())
}

func TestTheme(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodGet, "/api/theme", nil)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/theme", gin.H{"theme": "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", s.events.last().Theme)

	w = s.do(t, http.MethodPost, "/api/theme", gin.H{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/theme", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())
}

func TestSalesLimitValidation(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(t, http.MethodGet, "/api/sales?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodGet, "/api/cart?session_id=a", nil)

	w := s.do(t, http.MethodGet, "/api/system-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]any](t, w)
	assert.Equal(t, "running", status["status"])
	assert.Equal(t, float64(0), status["active_connections"])
	assert.Equal(t, float64(1), status["active_carts"])

	w = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
