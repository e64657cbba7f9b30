// Package api exposes the discovery services over HTTP with gin.
package api

import (
	"net/http"

	"github.com/bastiangx/shopserve/internal/logger"
	"github.com/bastiangx/shopserve/pkg/cart"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/config"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Options wires the API to its collaborators. Prices may be nil, which
// disables the refresh-price route.
type Options struct {
	Catalog   *catalog.Catalog
	Suggester suggest.Suggester
	History   *history.Manager
	Prices    *pricefeed.Updater
	Config    *config.Config
	Logger    *log.Logger
}

type handler struct {
	catalog   *catalog.Catalog
	suggester suggest.Suggester
	history   *history.Manager
	prices    *pricefeed.Updater
	config    *config.Config
	rules     cart.Rules
	coupons   cart.Coupons
	log       *log.Logger
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(opts Options) *gin.Engine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStatic(nil)
	}
	if opts.Suggester == nil {
		opts.Suggester = suggest.NewEngine(nil)
	}
	if opts.History == nil {
		opts.History = history.NewManager(nil, "", 0)
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("http")
	}

	h := &handler{
		catalog:   opts.Catalog,
		suggester: opts.Suggester,
		history:   opts.History,
		prices:    opts.Prices,
		config:    opts.Config,
		rules:     opts.Config.CartRules(),
		coupons:   opts.Config.CouponSet(),
		log:       opts.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors())
	r.Use(requestLogger(h.log))
	r.Use(newRateLimiter(opts.Config.HTTP.RateLimit, opts.Config.HTTP.Burst).middleware())

	r.GET("/health", h.health)
	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)
	r.POST("/products/:id/refresh-price", h.refreshPrice)
	r.GET("/facets", h.facets)
	r.GET("/suggestions", h.suggestions)
	r.GET("/navigation", h.navigation)
	r.GET("/history", h.getHistory)
	r.POST("/history", h.addHistory)
	r.DELETE("/history", h.clearHistory)
	r.POST("/cart/quote", h.quote)

	return r
}

func (h *handler) fail(c *gin.Context, status int, code string, err error) {
	resp := ErrorResponse{Error: code, Code: status}
	if err != nil {
		resp.Message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatusJSON(status, resp)
}
