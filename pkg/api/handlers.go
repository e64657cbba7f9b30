package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/cart"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/filter"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
)

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "shopserve",
		"products": h.catalog.Len(),
	})
}

// parseFacets reads a facet selection from query parameters.
// brand and rating may repeat or hold comma-separated values.
func parseFacets(c *gin.Context, defaultSort string) (filter.Facets, error) {
	priceRange, err := filter.ParseRange(c.Query("min_price"), c.Query("max_price"))
	if err != nil {
		return filter.Facets{}, err
	}

	var ratings []int
	for _, v := range splitList(c.QueryArray("rating")) {
		r, err := strconv.Atoi(v)
		if err != nil || r < 0 || r > 5 {
			return filter.Facets{}, errors.Errorf("rating %q must be a whole number from 0 to 5", v)
		}
		ratings = append(ratings, r)
	}

	inStock := false
	if v := c.Query("in_stock"); v != "" {
		inStock, err = strconv.ParseBool(v)
		if err != nil {
			return filter.Facets{}, errors.Errorf("in_stock %q is not a boolean", v)
		}
	}

	return filter.Facets{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		SearchTerm:  c.Query("q"),
		PriceRange:  priceRange,
		Brands:      splitList(c.QueryArray("brand")),
		Ratings:     ratings,
		InStockOnly: inStock,
		Sort:        filter.ParseSortKey(c.DefaultQuery("sort", defaultSort)),
	}, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *handler) listProducts(c *gin.Context) {
	facets, err := parseFacets(c, h.config.Filter.DefaultSort)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_facets", err)
		return
	}

	products := filter.FilterAndSort(h.catalog.Products(), facets)
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"facets":   facets,
	})
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.catalog.ByID(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusNotFound, "product_not_found", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) facets(c *gin.Context) {
	c.JSON(http.StatusOK, filter.DeriveBounds(h.catalog.Products(), c.Query("category")))
}

func (h *handler) suggestions(c *gin.Context) {
	query := c.Query("q")
	if utils.RuneLen(query) > suggest.MaxQueryLength {
		h.fail(c, http.StatusBadRequest, "invalid_query",
			errors.Errorf("query exceeds maximum length of %d characters", suggest.MaxQueryLength))
		return
	}
	suggestions := h.suggester.Suggest(query, h.catalog.Products())

	limit := h.config.Server.MaxLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && (limit <= 0 || n < limit) {
			limit = n
		}
	}
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"query":       query,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

func (h *handler) navigation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.catalog.Navigation()})
}

func (h *handler) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.history.Entries()})
}

type addHistoryRequest struct {
	Term string `json:"term" binding:"required"`
}

func (h *handler) addHistory(c *gin.Context) {
	var req addHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Term) == "" {
		h.fail(c, http.StatusBadRequest, "invalid_term", err)
		return
	}

	entries, err := h.history.Add(c.Request.Context(), req.Term)
	if err != nil {
		h.log.Warn("search history not saved", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *handler) clearHistory(c *gin.Context) {
	if err := h.history.Clear(c.Request.Context()); err != nil {
		h.fail(c, http.StatusInternalServerError, "history_clear_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type quoteItem struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type quoteRequest struct {
	Items  []quoteItem `json:"items" binding:"dive"`
	Coupon string      `json:"coupon"`
}

func (h *handler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_cart", err)
		return
	}

	cartItems := cart.New()
	for _, item := range req.Items {
		p, err := h.catalog.ByID(item.ID)
		if err != nil {
			h.fail(c, http.StatusNotFound, "product_not_found", err)
			return
		}
		cartItems.Add(p, item.Quantity)
	}

	var coupon *cart.Coupon
	if req.Coupon != "" {
		found, err := h.coupons.Lookup(req.Coupon, time.Now())
		if err != nil {
			h.fail(c, http.StatusBadRequest, "invalid_coupon", err)
			return
		}
		coupon = &found
	}

	totals, err := cart.Quote(cartItems, coupon, h.rules)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_coupon", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *handler) refreshPrice(c *gin.Context) {
	if h.prices == nil {
		h.fail(c, http.StatusServiceUnavailable, "price_feed_disabled", nil)
		return
	}

	p, err := h.prices.Refresh(c.Request.Context(), h.catalog, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case errors.Is(err, catalog.ErrNotFound):
		h.fail(c, http.StatusNotFound, "product_not_found", err)
	case errors.Is(err, pricefeed.ErrNoSource):
		h.fail(c, http.StatusUnprocessableEntity, "no_source_url", err)
	case errors.Is(err, pricefeed.ErrBreakerOpen):
		c.Header("Retry-After", "60")
		h.fail(c, http.StatusServiceUnavailable, "source_unavailable", err)
	default:
		h.fail(c, http.StatusBadGateway, "price_fetch_failed", err)
	}
}
