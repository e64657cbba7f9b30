package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/cart"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/config"
	"github.com/bastiangx/shopserve/pkg/filter"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxQueryLength is the longest suggest query accepted, in runes.
const MaxQueryLength = suggest.MaxQueryLength

// Options wires a Server to its collaborators. Reader and Writer default to stdin and stdout.
type Options struct {
	Catalog    *catalog.Catalog
	Suggester  suggest.Suggester
	History    *history.Manager
	Config     *config.Config
	ConfigPath string
	Reader     io.Reader
	Writer     io.Writer
}

// Server handles msgpack IPC for discovery requests
type Server struct {
	catalog    *catalog.Catalog
	suggester  suggest.Suggester
	history    *history.Manager
	config     *config.Config
	configPath string
	rules      cart.Rules
	coupons    cart.Coupons

	reader       io.Reader
	encoder      *msgpack.Encoder
	requestCount int
}

// NewServer creates a server. Missing collaborators get empty defaults.
func NewServer(opts Options) *Server {
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
	if opts.Reader == nil {
		opts.Reader = os.Stdin
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	s := &Server{
		catalog:    opts.Catalog,
		suggester:  opts.Suggester,
		history:    opts.History,
		configPath: opts.ConfigPath,
		reader:     opts.Reader,
		encoder:    msgpack.NewEncoder(opts.Writer),
	}
	s.applyConfig(opts.Config)
	return s
}

func (s *Server) applyConfig(cfg *config.Config) {
	s.config = cfg
	s.rules = cfg.CartRules()
	s.coupons = cfg.CouponSet()
}

// Start reads requests until the input ends or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting IPC server.")
	decoder := msgpack.NewDecoder(s.reader)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, stopping IPC server.")
				return nil
			}
			log.Errorf("Reading from stdin: %v", err)
			return errors.Wrap(err, "read request")
		}

		s.handleRequest(ctx, raw)

		s.requestCount++
		if every := s.config.Server.ReloadEvery; every > 0 && s.requestCount%every == 0 {
			s.reloadConfig()
		}
	}
}

func (s *Server) reloadConfig() {
	if s.configPath == "" {
		return
	}
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		log.Warnf("Config reload failed: %v", err)
		return
	}
	s.applyConfig(cfg)
	log.Debugf("Config reloaded after %d requests", s.requestCount)
}

// handleRequest decodes and dispatches a single request
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Debugf("Unmarshaling request: %v", err)
		s.sendError("", badRequest("invalid request: %v", err))
		return
	}

	start := time.Now()
	var (
		resp any
		err  error
	)

	switch req.Op {
	case "suggest":
		resp, err = s.handleSuggest(req, start)
	case "filter":
		resp, err = s.handleFilter(req, start)
	case "bounds":
		b := filter.DeriveBounds(s.catalog.Products(), req.Category)
		resp = BoundsResponse{
			ID:        req.ID,
			Brands:    b.Brands,
			Ratings:   b.Ratings,
			MinPrice:  b.MinPrice.StringFixed(2),
			MaxPrice:  b.MaxPrice.StringFixed(2),
			TimeTaken: time.Since(start).Microseconds(),
		}
	case "nav":
		resp = NavResponse{
			ID:        req.ID,
			Items:     toNavItemMsgs(s.catalog.Navigation()),
			TimeTaken: time.Since(start).Microseconds(),
		}
	case "history":
		resp = s.historyResponse(req.ID, s.history.Entries(), start)
	case "history_add":
		resp, err = s.handleHistoryAdd(ctx, req, start)
	case "history_clear":
		if err = s.history.Clear(ctx); err == nil {
			resp = StatusResponse{ID: req.ID, Status: "ok"}
		}
	case "cart_quote":
		resp, err = s.handleQuote(req, start)
	case "reload":
		if err = s.catalog.Reload(ctx); err == nil {
			resp = StatusResponse{ID: req.ID, Status: "ok", Products: s.catalog.Len()}
		}
	case "health":
		resp = StatusResponse{ID: req.ID, Status: "ok", Products: s.catalog.Len()}
	case "":
		err = badRequest("missing 'op' field")
	default:
		err = badRequest("unknown op: %s", req.Op)
	}

	if err != nil {
		s.sendError(req.ID, err)
		return
	}
	s.sendResponse(resp)
}

func (s *Server) handleSuggest(req Request, start time.Time) (any, error) {
	if utils.RuneLen(req.Query) > MaxQueryLength {
		return nil, badRequest("query exceeds maximum length of %d characters", MaxQueryLength)
	}

	maxLimit := s.config.Server.MaxLimit
	limit := req.Limit
	if limit < 1 || (maxLimit > 0 && limit > maxLimit) {
		limit = maxLimit
	}

	suggestions := s.suggester.Suggest(req.Query, s.catalog.Products())
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return SuggestResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	}, nil
}

func (s *Server) handleFilter(req Request, start time.Time) (any, error) {
	facets, err := toFacets(req.Facets, s.config.Filter.DefaultSort)
	if err != nil {
		return nil, badRequest("%v", err)
	}

	products := filter.FilterAndSort(s.catalog.Products(), facets)
	return FilterResponse{
		ID:        req.ID,
		Products:  toProductMsgs(products),
		Count:     len(products),
		TimeTaken: time.Since(start).Microseconds(),
	}, nil
}

func (s *Server) handleHistoryAdd(ctx context.Context, req Request, start time.Time) (any, error) {
	if strings.TrimSpace(req.Term) == "" {
		return nil, badRequest("missing 'term' parameter")
	}
	h, err := s.history.Add(ctx, req.Term)
	if err != nil {
		// the in-memory list is still updated
		log.Warnf("Search history not saved: %v", err)
	}
	return s.historyResponse(req.ID, h, start), nil
}

func (s *Server) historyResponse(id string, h history.History, start time.Time) HistoryResponse {
	return HistoryResponse{
		ID:        id,
		History:   []string(h),
		TimeTaken: time.Since(start).Microseconds(),
	}
}

func (s *Server) handleQuote(req Request, start time.Time) (any, error) {
	c := cart.New()
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, badRequest("quantity for %q must be positive", item.ID)
		}
		p, err := s.catalog.ByID(item.ID)
		if err != nil {
			return nil, err
		}
		c.Add(p, item.Quantity)
	}

	var coupon *cart.Coupon
	if req.Coupon != "" {
		found, err := s.coupons.Lookup(req.Coupon, time.Now())
		if err != nil {
			return nil, err
		}
		coupon = &found
	}

	t, err := cart.Quote(c, coupon, s.rules)
	if err != nil {
		return nil, err
	}
	return QuoteResponse{
		ID:        req.ID,
		Items:     t.Items,
		Subtotal:  t.Subtotal.StringFixed(2),
		Savings:   t.Savings.StringFixed(2),
		Discount:  t.Discount.StringFixed(2),
		Coupon:    t.Coupon,
		Shipping:  t.Shipping.StringFixed(2),
		Tax:       t.Tax.StringFixed(2),
		Total:     t.Total.StringFixed(2),
		TimeTaken: time.Since(start).Microseconds(),
	}, nil
}

// sendResponse encodes the response onto the output stream
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response with a code derived from err
func (s *Server) sendError(id string, err error) {
	code := StatusCode(err)
	if code >= 500 {
		log.Errorf("Request %s failed: %v", id, err)
	} else {
		log.Debugf("Request %s rejected: %v", id, err)
	}
	s.sendResponse(ErrorResponse{ID: id, Error: err.Error(), Code: code})
}

// inputError marks a request the client must fix
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// StatusCode maps an error to the code sent to clients.
func StatusCode(err error) int {
	var input *inputError
	switch {
	case errors.As(err, &input),
		errors.Is(err, filter.ErrInvalidRange),
		errors.Is(err, cart.ErrCouponInvalid):
		return 400
	case errors.Is(err, catalog.ErrNotFound):
		return 404
	default:
		return 500
	}
}
