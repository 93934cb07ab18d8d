package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/api"
	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/events"
	"storefront/pkg/logger"
	"storefront/pkg/memory"
	"storefront/pkg/order"
	"storefront/pkg/session"
)

const (
	userToken  = "user-token"
	otherToken = "other-token"
	adminToken = "admin-token"
)

type staticSessions map[string]session.Identity

func (s staticSessions) Lookup(_ context.Context, sid string) (session.Identity, error) {
	id, ok := s[sid]
	if !ok {
		return session.Identity{}, session.ErrNoSession
	}
	return id, nil
}

type body struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Data      json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (http.Handler, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	repo.AddUser(1, "alice")
	repo.AddUser(2, "bob")
	repo.AddUser(9, "admin")
	log := logger.Nop()
	srv := api.New(api.Config{
		Orders: order.NewService(repo, events.Nop{}, log, time.Second),
		Carts:  cart.NewService(repo, repo, log),
		Ledger: repo,
		Sessions: staticSessions{
			userToken:  {UserID: 1, Name: "alice"},
			otherToken: {UserID: 2, Name: "bob"},
			adminToken: {UserID: 9, Name: "admin", Role: session.RoleAdmin},
		},
		Log: log,
	})
	return srv.Routes(), repo
}

func do(t *testing.T, h http.Handler, method, path, token string, payload any) (int, body) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var b body
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b), rec.Body.String())
	}
	return rec.Code, b
}

func seed(t *testing.T, repo *memory.Repository, id int64, price string, stock int) {
	t.Helper()
	_, err := repo.CreateProduct(context.Background(), catalog.Product{
		ID: id, Name: "Widget", Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t)
	code, b := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, b.Success)
}

func TestAuth(t *testing.T) {
	h, _ := newServer(t)

	code, b := do(t, h, http.MethodPost, "/api/order/create", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized - No token provided", b.Message)

	code, b = do(t, h, http.MethodGet, "/api/cart", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", b.Message)

	code, b = do(t, h, http.MethodGet, "/api/admin/orders", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, b.Success)

	code, _ = do(t, h, http.MethodGet, "/api/admin/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCheckoutFlow(t *testing.T) {
	h, repo := newServer(t)
	seed(t, repo, 42, "10.00", 5)

	code, _ := do(t, h, http.MethodPost, "/api/cart/add", userToken, map[string]any{"product_id": 42, "quantity": 2})
	require.Equal(t, http.StatusOK, code)

	code, b := do(t, h, http.MethodPost, "/api/order/create", userToken, map[string]any{
		"address": "1 Main St", "alt_phone": "555-0100", "payment_method": "COD",
	})
	require.Equal(t, http.StatusOK, code, b.Message)
	assert.True(t, b.Success)
	assert.Equal(t, "Order placed successfully", b.Message)
	require.NotZero(t, b.OrderID)
	orderID := b.OrderID

	stock, err := repo.GetStock(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	code, b = do(t, h, http.MethodGet, "/api/cart", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var items []cart.Item
	require.NoError(t, json.Unmarshal(b.Data, &items))
	assert.Empty(t, items)

	code, b = do(t, h, http.MethodGet, "/api/orders/1", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var o order.Order
	require.NoError(t, json.Unmarshal(b.Data, &o))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, order.PaymentIncomplete, o.Payment.Status)

	code, _ = do(t, h, http.MethodGet, "/api/orders/1", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/api/orders/1", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, b = do(t, h, http.MethodGet, "/api/admin/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var summaries []order.Summary
	require.NoError(t, json.Unmarshal(b.Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, orderID, summaries[0].ID)
	assert.Equal(t, "alice", summaries[0].UserName)
	assert.Equal(t, "2 x Widget", summaries[0].Items)

	code, _ = do(t, h, http.MethodPut, "/api/admin/orders/status", adminToken, map[string]any{"order_id": orderID, "order_status": "Delivered"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodPut, "/api/admin/orders/status", adminToken, map[string]any{"order_id": orderID, "order_status": "Pending"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodPut, "/api/admin/orders/payment", adminToken, map[string]any{"order_id": orderID, "payment_status": "Complete"})
	assert.Equal(t, http.StatusOK, code)
	got, err := repo.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentComplete, got.Payment.Status)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestCreateOrderFailures(t *testing.T) {
	h, repo := newServer(t)
	seed(t, repo, 42, "10.00", 5)

	code, b := do(t, h, http.MethodPost, "/api/order/create", userToken, map[string]any{"address": "1 Main St", "payment_method": "COD"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cart is empty", b.Message)

	code, _ = do(t, h, http.MethodPost, "/api/order/create", userToken, map[string]any{"address": "1 Main St", "payment_method": "Bitcoin"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/order/create", userToken, map[string]any{"payment_method": "COD"})
	assert.Equal(t, http.StatusBadRequest, code)

	// Stock drops below the cart quantity after the line was added.
	require.NoError(t, repo.AddQuantity(context.Background(), 1, 42, 4))
	_, err := repo.AdjustStock(context.Background(), 42, -3)
	require.NoError(t, err)

	code, b = do(t, h, http.MethodPost, "/api/order/create", userToken, map[string]any{"address": "1 Main St", "payment_method": "Paypal"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, b.Success)
	assert.Contains(t, b.Message, "Widget")
	assert.Equal(t, int64(42), b.ProductID)

	stock, err := repo.GetStock(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
}

func TestCartValidation(t *testing.T) {
	h, repo := newServer(t)
	seed(t, repo, 42, "10.00", 1)

	code, _ := do(t, h, http.MethodPost, "/api/cart/add", userToken, map[string]any{"product_id": 7})
	assert.Equal(t, http.StatusNotFound, code)

	code, b := do(t, h, http.MethodPost, "/api/cart/add", userToken, map[string]any{"product_id": 42, "quantity": 3})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, int64(42), b.ProductID)

	code, _ = do(t, h, http.MethodPut, "/api/cart/update", userToken, map[string]any{"product_id": 42, "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/cart/add", userToken, map[string]any{"product_id": 42})
	require.Equal(t, http.StatusOK, code)

	code, b = do(t, h, http.MethodPut, "/api/cart/update", userToken, map[string]any{"product_id": 42, "quantity": 0})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Removed from cart", b.Message)

	items, err := repo.Items(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStatusUpdateFailures(t *testing.T) {
	h, _ := newServer(t)

	code, _ := do(t, h, http.MethodPut, "/api/admin/orders/status", adminToken, map[string]any{"order_id": 99, "order_status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPut, "/api/admin/orders/status", adminToken, map[string]any{"order_id": 99, "order_status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, b := do(t, h, http.MethodPut, "/api/admin/orders/payment", adminToken, map[string]any{"order_id": 99, "payment_status": "Complete"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Payment record not found", b.Message)
}

func TestAdjustStock(t *testing.T) {
	h, repo := newServer(t)
	seed(t, repo, 42, "10.00", 5)

	code, b := do(t, h, http.MethodPut, "/api/admin/products/stock", adminToken, map[string]any{"product_id": 42, "delta": 7})
	require.Equal(t, http.StatusOK, code)
	var got struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(b.Data, &got))
	assert.Equal(t, 12, got.Stock)

	code, _ = do(t, h, http.MethodPut, "/api/admin/products/stock", adminToken, map[string]any{"product_id": 42, "delta": -13})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, h, http.MethodPut, "/api/admin/products/stock", adminToken, map[string]any{"product_id": 7, "delta": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPut, "/api/admin/products/stock", userToken, map[string]any{"product_id": 42, "delta": 1})
	assert.Equal(t, http.StatusForbidden, code)

	code, b = do(t, h, http.MethodGet, "/api/products/42", "", nil)
	require.Equal(t, http.StatusOK, code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(b.Data, &p))
	assert.Equal(t, 12, p.Stock)
}
