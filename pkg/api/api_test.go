package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/shopserve/internal/logger"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/config"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "iPhone 15", Brand: "Apple", Category: "Smartphones", Price: decimal.NewFromInt(999), Rating: 4.8, InStock: true, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Name: "Samsung Galaxy S24", Brand: "Samsung", Category: "Smartphones", Price: decimal.NewFromInt(899), Rating: 4.6},
		{ID: "p3", Name: "Kettle", Brand: "Acme", Category: "Kitchen", Price: decimal.NewFromInt(30), Rating: 3.2, InStock: true},
	}
}

func newTestRouter(t *testing.T, mutate func(*Options)) *gin.Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.HTTP.RateLimit = 0
	opts := Options{
		Catalog: catalog.NewStatic(testProducts()),
		History: history.NewManager(history.NewMemoryStore(), "", 0),
		Config:  cfg,
		Logger:  logger.Discard(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRouter(opts)
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type productsBody struct {
	Products []catalog.Product `json:"products"`
	Count    int               `json:"count"`
}

func names(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t, nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Contains(t, w.Body.String(), `"products":3`)
}

func TestListProducts(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"iPhone 15", "Samsung Galaxy S24", "Kettle"}},
		{"?category=Smartphones&in_stock=true", []string{"iPhone 15"}},
		{"?category=Smartphones&sort=price-low", []string{"Samsung Galaxy S24", "iPhone 15"}},
		{"?brand=Apple,Acme", []string{"iPhone 15", "Kettle"}},
		{"?brand=Apple&brand=Samsung", []string{"iPhone 15", "Samsung Galaxy S24"}},
		{"?rating=4", []string{"iPhone 15", "Samsung Galaxy S24"}},
		{"?min_price=0&max_price=100", []string{"Kettle"}},
		{"?q=GALAXY", []string{"Samsung Galaxy S24"}},
		{"?sort=name", []string{"iPhone 15", "Kettle", "Samsung Galaxy S24"}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			w := do(r, http.MethodGet, "/products"+tc.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			var body productsBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.want, names(body.Products))
			assert.Equal(t, len(tc.want), body.Count)
		})
	}
}

func TestListProductsBadFacets(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, q := range []string{"?min_price=10", "?min_price=50&max_price=10", "?rating=7", "?in_stock=maybe"} {
		w := do(r, http.MethodGet, "/products"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "invalid_facets")
	}
}

func TestFacetsAndNavigation(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/facets?category=Smartphones", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bounds struct {
		Brands   []string `json:"brands"`
		Ratings  []int    `json:"ratings"`
		MinPrice string   `json:"minPrice"`
		MaxPrice string   `json:"maxPrice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bounds))
	assert.Equal(t, []string{"Apple", "Samsung"}, bounds.Brands)
	assert.Equal(t, "899", bounds.MinPrice)
	assert.Equal(t, "999", bounds.MaxPrice)

	w = do(r, http.MethodGet, "/navigation", "")
	require.Equal(t, http.StatusOK, w.Code)
	var nav struct {
		Items []catalog.NavigationItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nav))
	require.Len(t, nav.Items, 2)
	assert.Equal(t, "Smartphones", nav.Items[0].Name)
	assert.Equal(t, catalog.KindCategory, nav.Items[0].Kind)
}

func TestSuggestions(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/suggestions?q=ip", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ip", body.Suggestions[0])
	assert.Contains(t, body.Suggestions, "iPhone 15")

	w = do(r, http.MethodGet, "/suggestions?q=ip&limit=2", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Suggestions, 2)

	w = do(r, http.MethodGet, "/suggestions", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Suggestions)

	w = do(r, http.MethodGet, "/suggestions?q="+url.QueryEscape(strings.Repeat("é", suggest.MaxQueryLength)), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/suggestions?q="+strings.Repeat("a", suggest.MaxQueryLength+1), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "invalid_query", errBody.Error)
}

func TestHistoryRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/history", `{"term":"kettle"}`).Code)
	w := do(r, http.MethodPost, "/history", `{"term":"phone"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"history":["phone","kettle"]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/history", `{"term":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/history", `nope`).Code)

	w = do(r, http.MethodGet, "/history", "")
	assert.JSONEq(t, `{"history":["phone","kettle"]}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/history", "").Code)
	w = do(r, http.MethodGet, "/history", "")
	assert.JSONEq(t, `{"history":[]}`, w.Body.String())
}

func TestCartQuote(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/cart/quote", `{"items":[{"id":"p3","quantity":1}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var totals map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	assert.Equal(t, "30", totals["subtotal"])
	assert.Equal(t, "5.99", totals["shipping"])
	assert.Equal(t, "2.4", totals["tax"])
	assert.Equal(t, "38.39", totals["total"])

	w = do(r, http.MethodPost, "/cart/quote", `{"items":[{"id":"p1","quantity":1}],"coupon":"save20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	assert.Equal(t, "20", totals["discount"])
	assert.Equal(t, "SAVE20", totals["coupon"])

	tests := []struct {
		body string
		code int
	}{
		{`{"items":[{"id":"p9","quantity":1}]}`, http.StatusNotFound},
		{`{"items":[{"id":"p1","quantity":0}]}`, http.StatusBadRequest},
		{`{"items":[{"id":"p3","quantity":1}],"coupon":"SAVE20"}`, http.StatusBadRequest},
		{`{"items":[{"id":"p3","quantity":1}],"coupon":"BOGUS"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.code, do(r, http.MethodPost, "/cart/quote", tc.body).Code, tc.body)
	}
}

func TestRefreshPrice(t *testing.T) {
	r := newTestRouter(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/products/p1/refresh-price", "").Code)

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<span class="price">$949.00</span>`)
	}))
	defer page.Close()

	products := testProducts()
	products[0].SourceURL = page.URL + "/iphone-15"
	r = newTestRouter(t, func(o *Options) {
		o.Catalog = catalog.NewStatic(products)
		o.Prices = pricefeed.New(page.Client(), pricefeed.DefaultOptions())
	})

	w := do(r, http.MethodPost, "/products/p1/refresh-price", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"949"`)

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPost, "/products/p2/refresh-price", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/products/nope/refresh-price", "").Code)

	w = do(r, http.MethodGet, "/products/p1", "")
	assert.Contains(t, w.Body.String(), `"price":"949"`)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, func(o *Options) {
		o.Config.HTTP.RateLimit = 1
		o.Config.HTTP.Burst = 2
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	rl := newRateLimiter(1, 1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = start

	first := rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	assert.Len(t, rl.clients, 2)

	clock = start.Add(limiterIdleTTL / 2)
	assert.Same(t, first, rl.get("10.0.0.1"))

	clock = start.Add(limiterIdleTTL + time.Second)
	rl.get("10.0.0.3")
	assert.Len(t, rl.clients, 2)
	assert.Contains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.3")
	assert.NotContains(t, rl.clients, "10.0.0.2")
}
