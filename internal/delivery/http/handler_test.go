package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/payment"
	"github.com/manalamro/chippy/internal/repository/memory"
	"github.com/manalamro/chippy/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Repositories().Products.Seed(context.Background(), []entity.Product{
		{ID: "cookie", Title: "Cookie", Price: decimal.RequireFromString("2.50"), Stock: 5},
		{ID: "cake", Title: "Cake", Price: decimal.RequireFromString("30.00"), Stock: 1},
	}))

	carts := service.NewCartService(store)
	guests := service.NewGuestCartService(store, memory.NewGuestCartStore(), time.Hour)
	h := NewHandler(
		service.NewProductService(store),
		carts,
		guests,
		service.NewMergeService(carts, guests),
		service.NewAddressService(store),
		service.NewOrderService(store, payment.NewMockGateway(), nil),
	)
	return &testServer{router: NewRouter(h, NewAuthenticator(testSecret), []string{"*"}), store: store}
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func userToken(t *testing.T, userID string) string {
	return token(t, jwt.MapClaims{"userId": userID, "role": "USER", "exp": time.Now().Add(time.Hour).Unix()})
}

func adminToken(t *testing.T) string {
	return token(t, jwt.MapClaims{"sub": "admin-1", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix()})
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
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

func TestHealthAndProducts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]entity.Product](t, w)
	assert.Len(t, products, 2)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := token(t, jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	w = s.do(t, http.MethodGet, "/api/cart", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/orders", userToken(t, "u1"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/orders", adminToken(t), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")

	w := s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cookie", "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[entity.CartItem](t, w)
	assert.Equal(t, 3, item.Quantity)

	w = s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cookie", "quantity": 3})
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[map[string]any](t, w)
	assert.EqualValues(t, 5, conflict["available"])

	w = s.do(t, http.MethodPost, "/api/addresses", tok, map[string]any{"full_name": "Sam", "phone": "1", "street": "1 Main", "city": "Zarqa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	addr := decode[entity.Address](t, w)

	w = s.do(t, http.MethodPost, "/api/orders", tok, map[string]any{"address_id": addr.ID, "payment": map[string]string{"method": "card"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[entity.PlaceOrderResult](t, w)
	assert.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.TransactionID)

	w = s.do(t, http.MethodGet, "/api/orders", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode[[]entity.Order](t, w)
	require.Len(t, orders, 1)
	assert.Equal(t, "Zarqa", orders[0].Address.City)

	w = s.do(t, http.MethodGet, "/api/cart", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[entity.Cart](t, w).Items)

	w = s.do(t, http.MethodPost, "/api/orders", tok, map[string]any{"address_id": addr.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", decode[map[string]string](t, w)["error"])
}

func TestPlaceOrder_Errors(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")

	w := s.do(t, http.MethodPost, "/api/orders", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cake", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/orders", tok, map[string]any{"address_id": "someone-elses"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAddress(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")

	w := s.do(t, http.MethodPost, "/api/addresses", tok, map[string]any{"full_name": "Sam", "phone": "1", "street": "1 Main", "city": "Irbid"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	addr := decode[entity.Address](t, w)

	w = s.do(t, http.MethodGet, "/api/addresses/"+addr.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Irbid", decode[entity.Address](t, w).City)

	w = s.do(t, http.MethodGet, "/api/addresses/"+addr.ID, userToken(t, "user-2"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")

	w := s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cookie", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[entity.CartItem](t, w)

	w = s.do(t, http.MethodPatch, "/api/cart/items/"+item.ID, tok, map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decode[entity.Cart](t, w)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	w = s.do(t, http.MethodPatch, "/api/cart/items/unknown", tok, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/api/cart/items/"+item.ID, tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for range 2 {
		w = s.do(t, http.MethodDelete, "/api/cart/items/"+item.ID, tok, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestGuestCartAndMerge(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/guest-cart/items", "", map[string]any{"product_id": "cookie", "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	guestID := w.Header().Get(headerGuestCartID)
	require.NotEmpty(t, guestID)

	w = s.do(t, http.MethodPost, "/api/guest-cart/items", "", map[string]any{"product_id": "cake", "quantity": 1}, headerGuestCartID, guestID)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, guestID, w.Header().Get(headerGuestCartID))

	w = s.do(t, http.MethodGet, "/api/guest-cart", "", nil, headerGuestCartID, guestID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[entity.Cart](t, w).Items, 2)

	tok := userToken(t, "user-1")
	w = s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cookie", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/cart/merge", tok, nil, headerGuestCartID, guestID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[service.MergeResult](t, w)
	assert.Empty(t, result.Failed)
	quantities := map[string]int{}
	for _, item := range result.Cart.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"cookie": 3, "cake": 1}, quantities)

	w = s.do(t, http.MethodGet, "/api/guest-cart", "", nil, headerGuestCartID, guestID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[entity.Cart](t, w).Items)
}

func TestMerge_ClientHeldItems(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")

	w := s.do(t, http.MethodPost, "/api/cart/merge", tok, map[string]any{
		"items": []map[string]any{
			{"product_id": "cookie", "quantity": 2},
			{"product_id": "cake", "quantity": 5},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[service.MergeResult](t, w)
	require.Len(t, result.Cart.Items, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "cake", result.Failed[0].ProductID)
}

func TestAdminOrderStatus(t *testing.T) {
	s := newTestServer(t)
	tok := userToken(t, "user-1")
	admin := adminToken(t)

	s.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"product_id": "cookie", "quantity": 1})
	w := s.do(t, http.MethodPost, "/api/addresses", tok, map[string]any{"full_name": "Sam", "phone": "1", "street": "1 Main", "city": "Aqaba"})
	addr := decode[entity.Address](t, w)
	w = s.do(t, http.MethodPost, "/api/orders", tok, map[string]any{"address_id": addr.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode[entity.PlaceOrderResult](t, w).OrderID

	w = s.do(t, http.MethodPatch, "/api/admin/orders/"+orderID+"/status", admin, map[string]any{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entity.OrderStatusProcessing, decode[entity.Order](t, w).Status)

	w = s.do(t, http.MethodPatch, "/api/admin/orders/"+orderID+"/status", admin, map[string]any{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/admin/orders/"+orderID+"/status", admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no fields to update", decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodPatch, "/api/admin/orders/missing/status", admin, map[string]any{"payment_status": "refunded"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/orders/"+orderID+"/history", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entity.EventStoreRecord](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/admin/orders?limit=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
