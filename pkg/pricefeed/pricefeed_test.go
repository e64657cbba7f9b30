package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><body>
<div class="product">
  <span class="now">$1,149.00</span>
  <span class="was">$1,299.99</span>
</div>
</body></html>`

func host(t *testing.T, srv *httptest.Server) string {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Hostname()
}

func TestFetchWithSiteSelectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, productPage)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Sites[host(t, srv)] = Selectors{Price: ".now", Original: ".was"}
	u := New(srv.Client(), opts)

	q, err := u.Fetch(context.Background(), srv.URL+"/p/1")
	require.NoError(t, err)
	assert.Equal(t, "1149.00", q.Price.StringFixed(2))
	require.NotNil(t, q.Original)
	assert.Equal(t, "1299.99", q.Original.StringFixed(2))
}

func TestFetchDefaultSelectorsAndMetaFallback(t *testing.T) {
	pages := map[string]string{
		"/itemprop": `<html><body><span itemprop="price" content="24.50">$24.50</span></body></html>`,
		"/meta":     `<html><head><meta property="product:price:amount" content="89.90"></head><body></body></html>`,
		"/none":     `<html><body><p>Out of stock</p></body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Path])
	}))
	defer srv.Close()

	u := New(srv.Client(), DefaultOptions())
	ctx := context.Background()

	q, err := u.Fetch(ctx, srv.URL+"/itemprop")
	require.NoError(t, err)
	assert.Equal(t, "24.50", q.Price.StringFixed(2))
	assert.Nil(t, q.Original)

	q, err = u.Fetch(ctx, srv.URL+"/meta")
	require.NoError(t, err)
	assert.Equal(t, "89.90", q.Price.StringFixed(2))

	_, err = u.Fetch(ctx, srv.URL+"/none")
	assert.True(t, errors.Is(err, ErrPriceNotFound))
}

func TestFetchInvalidURL(t *testing.T) {
	u := New(nil, DefaultOptions())
	_, err := u.Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestBreakerOpensPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.FailureThreshold = 2
	opts.OpenTimeout = time.Hour
	u := New(srv.Client(), opts)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := u.Fetch(ctx, srv.URL)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrBreakerOpen))
	}

	_, err := u.Fetch(ctx, srv.URL)
	assert.True(t, errors.Is(err, ErrBreakerOpen))
	assert.Equal(t, int32(2), hits.Load())

	// a different host keeps its own breaker
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<span class="price">$5</span>`)
	}))
	defer other.Close()
	otherURL := "http://localhost:" + other.URL[len("http://127.0.0.1:"):]

	q, err := u.Fetch(ctx, otherURL)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(q.Price))
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<span class="price">$849.00</span><del><span class="price">$999.00</span></del>`)
	}))
	defer srv.Close()

	c := catalog.NewStatic([]catalog.Product{
		{ID: "p1", Name: "iPhone 15", Price: decimal.NewFromInt(999), SourceURL: srv.URL + "/iphone"},
		{ID: "p2", Name: "Case", Price: decimal.NewFromInt(20)},
	})
	u := New(srv.Client(), DefaultOptions())
	ctx := context.Background()

	p, err := u.Refresh(ctx, c, "p1")
	require.NoError(t, err)
	assert.Equal(t, "849.00", p.Price.StringFixed(2))
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 15, p.DiscountPercent())

	stored, err := c.ByID("p1")
	require.NoError(t, err)
	assert.Equal(t, "849.00", stored.Price.StringFixed(2))

	_, err = u.Refresh(ctx, c, "p2")
	assert.True(t, errors.Is(err, ErrNoSource))

	_, err = u.Refresh(ctx, c, "missing")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}
