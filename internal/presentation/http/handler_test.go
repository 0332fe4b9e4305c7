package httppresentation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
	appcart "github.com/Zhima-Mochi/storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	infraauth "github.com/Zhima-Mochi/storefront/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	httppresentation "github.com/Zhima-Mochi/storefront/internal/presentation/http"
)

const adminEmail = "admin@shop.com"

type client struct {
	t      *testing.T
	server *httptest.Server
}

func newClient(t *testing.T, health func(context.Context) error) *client {
	t.Helper()
	st := memory.NewStore()
	repos := st.Repositories()
	tel := observability.Nop()
	ids := id.NewUUIDGenerator()

	hasher, err := infraauth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := infraauth.NewJWT("test-secret", time.Hour, "storefront")
	require.NoError(t, err)

	svc := httppresentation.Services{
		Auth:        appauth.NewService(repos.Users, hasher, tokens, tokens, ids, tel, appauth.WithAdminEmails(adminEmail)),
		Catalog:     appcatalog.NewService(repos.Products, st, nil, ids, tel),
		Cart:        appcart.NewService(st, tel),
		CreateOrder: apporder.NewCreateOrderUseCase(st, ids, nil, tel),
		CancelOrder: apporder.NewCancelOrderUseCase(st, nil, tel),
		Orders:      apporder.NewQueryUseCase(repos.Orders, tel),
		OrderStatus: apporder.NewUpdateStatusUseCase(st, nil, tel),
	}
	h := httppresentation.NewHandler(svc, httppresentation.Config{
		ServiceName:    "storefront",
		Environment:    "test",
		AllowedOrigin:  "*",
		RequestTimeout: 5 * time.Second,
		Health:         health,
	}, tel)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &client{t: t, server: srv}
}

type reply struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]any
}

func (c *client) do(method, path, token string, body any, headers ...string) reply {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var raw bytes.Buffer
	_, err = raw.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	out := reply{status: resp.StatusCode, header: resp.Header, raw: raw.Bytes()}
	_ = json.Unmarshal(out.raw, &out.body)
	return out
}

func (c *client) register(email string) string {
	c.t.Helper()
	r := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Shopper", "email": email, "password": "secret1",
	})
	require.Equal(c.t, http.StatusCreated, r.status, string(r.raw))
	tok, _ := r.body["token"].(string)
	require.NotEmpty(c.t, tok)
	return tok
}

func (c *client) createProduct(admin string, price float64, stock int) string {
	c.t.Helper()
	r := c.do(http.MethodPost, "/api/products", admin, map[string]any{
		"name": "Mug", "description": "Ceramic", "price": price, "category": "Casa", "stock": stock,
	})
	require.Equal(c.t, http.StatusCreated, r.status, string(r.raw))
	p := r.body["product"].(map[string]any)
	return p["id"].(string)
}

var shipping = map[string]any{
	"shippingAddress": map[string]string{
		"street": "1 Main St", "city": "Springfield", "zipCode": "12345", "country": "US",
	},
	"paymentMethod": "credit_card",
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t, nil)
	tok := c.register("ana@example.com")

	r := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Again", "email": "ANA@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "email already registered", r.body["error"])

	r = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope!!"})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, r.status)
	assert.NotEmpty(t, r.body["token"])

	r = c.do(http.MethodGet, "/api/auth/profile", tok, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ana@example.com", r.body["user"].(map[string]any)["email"])
	assert.NotContains(t, string(r.raw), "password")

	r = c.do(http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	r = c.do(http.MethodGet, "/api/auth/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "invalid or expired token", r.body["error"])

	r = c.do(http.MethodPost, "/api/auth/change-password", tok, map[string]string{
		"oldPassword": "secret1", "newPassword": "secret2",
	})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestProductAdminOnly(t *testing.T) {
	c := newClient(t, nil)
	shopper := c.register("ana@example.com")
	admin := c.register(adminEmail)

	r := c.do(http.MethodPost, "/api/products", shopper, map[string]any{
		"name": "Mug", "price": 8, "category": "Casa", "stock": 1,
	})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "admin privileges required", r.body["error"])

	r = c.do(http.MethodPost, "/api/products", admin, map[string]any{"name": "Mug", "category": "Casa"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "price is required", r.body["error"])

	r = c.do(http.MethodPost, "/api/products", admin, map[string]any{"name": "Mug", "price": 8, "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, r.status)

	pid := c.createProduct(admin, 8.5, 2)

	r = c.do(http.MethodGet, "/api/products/"+pid, "", nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.raw), `"price":8.50`)
	assert.Equal(t, []any{}, r.body["images"])

	r = c.do(http.MethodGet, "/api/products?category=Casa&minPrice=5&maxPrice=10", "", nil)
	require.Equal(t, http.StatusOK, r.status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &list))
	assert.Len(t, list, 1)

	r = c.do(http.MethodGet, "/api/products?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = c.do(http.MethodPut, "/api/products/"+pid, admin, map[string]any{"stock": 7})
	require.Equal(t, http.StatusOK, r.status)
	assert.EqualValues(t, 7, r.body["product"].(map[string]any)["stock"])

	r = c.do(http.MethodDelete, "/api/products/"+pid, admin, nil)
	assert.Equal(t, http.StatusOK, r.status)
	r = c.do(http.MethodGet, "/api/products/"+pid, "", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "product not found", r.body["error"])
}

func TestCheckoutOverHTTP(t *testing.T) {
	c := newClient(t, nil)
	admin := c.register(adminEmail)
	shopper := c.register("ana@example.com")
	pid := c.createProduct(admin, 12.5, 3)

	r := c.do(http.MethodPost, "/api/orders", shopper, shipping)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "cart is empty", r.body["error"])

	r = c.do(http.MethodPost, "/api/cart/add", shopper, map[string]any{"productId": pid, "quantity": 5})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "insufficient stock for Mug", r.body["error"])

	r = c.do(http.MethodPost, "/api/cart/add", shopper, map[string]any{"productId": pid, "quantity": 2})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	assert.Contains(t, string(r.raw), `"totalPrice":25.00`)

	r = c.do(http.MethodPost, "/api/orders", shopper, shipping, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, r.status, string(r.raw))
	assert.Contains(t, string(r.raw), `"totalAmount":25.00`)
	created := r.body["order"].(map[string]any)
	orderID := created["id"].(string)
	assert.Equal(t, "pending", created["orderStatus"])

	r = c.do(http.MethodPost, "/api/orders", shopper, shipping, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, orderID, r.body["order"].(map[string]any)["id"])

	r = c.do(http.MethodGet, "/api/cart", shopper, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.EqualValues(t, 0, r.body["totalItems"])

	r = c.do(http.MethodGet, "/api/products/"+pid, "", nil)
	assert.EqualValues(t, 1, r.body["stock"])

	r = c.do(http.MethodGet, "/api/orders", shopper, nil)
	require.Equal(t, http.StatusOK, r.status)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &orders))
	assert.Len(t, orders, 1)

	other := c.register("bob@example.com")
	r = c.do(http.MethodGet, "/api/orders/"+orderID, other, nil)
	assert.Equal(t, http.StatusForbidden, r.status)

	r = c.do(http.MethodPatch, "/api/orders/"+orderID+"/status", shopper, map[string]any{"orderStatus": "shipped"})
	assert.Equal(t, http.StatusForbidden, r.status)

	r = c.do(http.MethodPost, "/api/orders/"+orderID+"/cancel", shopper, nil)
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	assert.Equal(t, "cancelled", r.body["order"].(map[string]any)["orderStatus"])
	r = c.do(http.MethodGet, "/api/products/"+pid, "", nil)
	assert.EqualValues(t, 3, r.body["stock"])
}

func lines(t *testing.T, v any) map[string]map[string]any {
	t.Helper()
	items, ok := v.([]any)
	require.True(t, ok, "items is a list")
	out := make(map[string]map[string]any, len(items))
	for _, it := range items {
		l := it.(map[string]any)
		out[l["productId"].(string)] = l
	}
	return out
}

func TestLinesCarryProductDetails(t *testing.T) {
	c := newClient(t, nil)
	admin := c.register(adminEmail)
	shopper := c.register("ana@example.com")
	mug := c.createProduct(admin, 12.5, 3)
	tea := c.createProduct(admin, 4, 2)

	for _, add := range []map[string]any{
		{"productId": mug, "quantity": 2},
		{"productId": tea, "quantity": 1},
	} {
		r := c.do(http.MethodPost, "/api/cart/add", shopper, add)
		require.Equal(t, http.StatusOK, r.status, string(r.raw))
	}

	r := c.do(http.MethodGet, "/api/cart", shopper, nil)
	require.Equal(t, http.StatusOK, r.status)
	cartLines := lines(t, r.body["items"])
	require.Len(t, cartLines, 2)
	product := cartLines[mug]["product"].(map[string]any)
	assert.Equal(t, "Mug", product["name"])
	assert.EqualValues(t, 12.5, product["price"])
	assert.EqualValues(t, 3, product["stock"])

	r = c.do(http.MethodPost, "/api/orders", shopper, shipping)
	require.Equal(t, http.StatusCreated, r.status, string(r.raw))
	orderID := r.body["order"].(map[string]any)["id"].(string)

	r = c.do(http.MethodPut, "/api/products/"+mug, admin, map[string]any{"price": 15})
	require.Equal(t, http.StatusOK, r.status)
	r = c.do(http.MethodDelete, "/api/products/"+tea, admin, nil)
	require.Equal(t, http.StatusOK, r.status)

	r = c.do(http.MethodGet, "/api/orders/"+orderID, shopper, nil)
	require.Equal(t, http.StatusOK, r.status)
	orderLines := lines(t, r.body["items"])
	assert.EqualValues(t, 12.5, orderLines[mug]["price"], "captured price is kept")
	assert.EqualValues(t, 2, orderLines[mug]["quantity"])
	assert.EqualValues(t, 15, orderLines[mug]["product"].(map[string]any)["price"])
	assert.Nil(t, orderLines[tea]["product"], "deleted product renders as null")
	assert.EqualValues(t, 4, orderLines[tea]["price"])

	r = c.do(http.MethodGet, "/api/orders", shopper, nil)
	require.Equal(t, http.StatusOK, r.status)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &orders))
	require.Len(t, orders, 1)
	listed := lines(t, orders[0]["items"])
	assert.Equal(t, "Mug", listed[mug]["product"].(map[string]any)["name"])
	assert.Nil(t, listed[tea]["product"])
}

func TestAdminMovesOrderAlong(t *testing.T) {
	c := newClient(t, nil)
	admin := c.register(adminEmail)
	pid := c.createProduct(admin, 4, 5)

	r := c.do(http.MethodPost, "/api/cart/add", admin, map[string]any{"productId": pid, "quantity": 1})
	require.Equal(t, http.StatusOK, r.status)
	r = c.do(http.MethodPost, "/api/orders", admin, shipping)
	require.Equal(t, http.StatusCreated, r.status)
	orderID := r.body["order"].(map[string]any)["id"].(string)

	r = c.do(http.MethodPatch, "/api/orders/"+orderID+"/status", admin, map[string]any{
		"orderStatus": "processing", "paymentStatus": "completed", "trackingNumber": "TRK1",
	})
	require.Equal(t, http.StatusOK, r.status, string(r.raw))
	o := r.body["order"].(map[string]any)
	assert.Equal(t, "processing", o["orderStatus"])
	assert.Equal(t, "completed", o["paymentStatus"])
	assert.Equal(t, "TRK1", o["trackingNumber"])

	r = c.do(http.MethodPatch, "/api/orders/"+orderID+"/status", admin, map[string]any{"orderStatus": "pending"})
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = c.do(http.MethodPost, "/api/orders/"+orderID+"/cancel", admin, nil)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "only pending orders can be cancelled", r.body["error"])
}

func TestOrderValidation(t *testing.T) {
	c := newClient(t, nil)
	tok := c.register("ana@example.com")

	r := c.do(http.MethodPost, "/api/orders", tok, map[string]any{"paymentMethod": "credit_card"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Contains(t, r.body["error"], "shipping address")

	r = c.do(http.MethodPost, "/api/orders", tok, map[string]any{
		"shippingAddress": shipping["shippingAddress"], "paymentMethod": "barter",
	})
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestHealthInfoAndFallbacks(t *testing.T) {
	c := newClient(t, nil)
	r := c.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "OK", r.body["status"])
	assert.NotEmpty(t, r.header.Get("X-Request-ID"))

	r = c.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, "storefront", r.body["name"])

	r = c.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "route not found", r.body["error"])

	r = c.do(http.MethodGet, "/api/health", "", nil, "X-Request-ID", "req-42")
	assert.Equal(t, "req-42", r.header.Get("X-Request-ID"))

	down := newClient(t, func(context.Context) error { return errors.New("no primary") })
	r = down.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
	assert.Equal(t, "DOWN", r.body["status"])
}

func TestCORSPreflight(t *testing.T) {
	c := newClient(t, nil)
	r := c.do(http.MethodOptions, "/api/orders", "", nil, "Origin", "http://shop.example", "Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, r.status)
	assert.Contains(t, r.header.Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}
