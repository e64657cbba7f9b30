// Package pricefeed refreshes catalog prices by scraping product pages.
//
// Scraping is best effort. Each host gets its own circuit breaker so a site
// that keeps failing is left alone for a while instead of being hit on
// every refresh.
package pricefeed

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/charmbracelet/log"
	"github.com/eapache/go-resiliency/breaker"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrBreakerOpen is returned without making a request while a host's breaker is open.
	ErrBreakerOpen = breaker.ErrBreakerOpen
	// ErrPriceNotFound means the page was fetched but no price could be read from it.
	ErrPriceNotFound = errors.New("price not found")
	// ErrNoSource is returned by Refresh for products without a source URL.
	ErrNoSource = errors.New("product has no source url")
)

// Selectors are the CSS selectors that locate prices on a site's product page.
type Selectors struct {
	Price    string `toml:"price"`
	Original string `toml:"original"`
}

// DefaultSelectors are tried for hosts without their own entry.
var DefaultSelectors = Selectors{
	Price:    "[itemprop='price'], .price, [data-testid='price']",
	Original: ".original-price, .was-price, del .price",
}

// Options configure an Updater
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Sites maps a host name to its selectors
	Sites map[string]Selectors
	// FailureThreshold consecutive failures open a host's breaker
	FailureThreshold int
	// SuccessThreshold successes in half-open state close it again
	SuccessThreshold int
	// OpenTimeout is how long a breaker stays open
	OpenTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Timeout:          30 * time.Second,
		UserAgent:        "Mozilla/5.0 (compatible; shopserve-pricefeed/1.0)",
		Sites:            map[string]Selectors{},
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	}
}

// Quote is a price read from a product page
type Quote struct {
	URL       string
	Price     decimal.Decimal
	Original  *decimal.Decimal
	FetchedAt time.Time
}

// Updater fetches product pages and reads their prices.
type Updater struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
}

// New creates an updater. A nil client gets one with opts.Timeout.
func New(client *http.Client, opts Options) *Updater {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = def.FailureThreshold
	}
	if opts.SuccessThreshold <= 0 {
		opts.SuccessThreshold = def.SuccessThreshold
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = def.OpenTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Updater{
		client:   client,
		opts:     opts,
		breakers: make(map[string]*breaker.Breaker),
	}
}

func (u *Updater) breakerFor(host string) *breaker.Breaker {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.breakers[host]
	if !ok {
		b = breaker.New(u.opts.FailureThreshold, u.opts.SuccessThreshold, u.opts.OpenTimeout)
		u.breakers[host] = b
	}
	return b
}

func (u *Updater) selectorsFor(host string) Selectors {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if s, ok := u.opts.Sites[host]; ok {
		return s
	}
	return DefaultSelectors
}

// Fetch reads the current and original price from the page at rawURL.
// Returns ErrBreakerOpen while the host's breaker is open.
func (u *Updater) Fetch(ctx context.Context, rawURL string) (Quote, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Quote{}, errors.Errorf("invalid product url %q", rawURL)
	}
	host := parsed.Hostname()

	var q Quote
	err = u.breakerFor(host).Run(func() error {
		var fetchErr error
		q, fetchErr = u.fetch(ctx, rawURL, u.selectorsFor(host))
		return fetchErr
	})
	if errors.Is(err, ErrBreakerOpen) {
		log.Warnf("Skipping %s: circuit open", host)
		return Quote{}, err
	}
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (u *Updater) fetch(ctx context.Context, rawURL string, sel Selectors) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Quote{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", u.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := u.client.Do(req)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "get %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, errors.Errorf("get %s: status code %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "parse %s", rawURL)
	}

	price, ok := readPrice(doc, sel.Price)
	if !ok {
		// fall back to the Open Graph product price
		price, ok = utils.ParsePrice(doc.Find("meta[property='product:price:amount']").AttrOr("content", ""))
	}
	if !ok {
		return Quote{}, errors.Wrapf(ErrPriceNotFound, "%s", rawURL)
	}

	q := Quote{URL: rawURL, Price: price, FetchedAt: time.Now()}
	if original, ok := readPrice(doc, sel.Original); ok && original.GreaterThan(price) {
		q.Original = &original
	}

	log.Debugf("Fetched price %s from %s", price.StringFixed(2), rawURL)
	return q, nil
}

// readPrice returns the first parseable price among the elements matching selector.
func readPrice(doc *goquery.Document, selector string) (decimal.Decimal, bool) {
	if selector == "" {
		return decimal.Zero, false
	}

	var (
		price decimal.Decimal
		found bool
	)
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.AttrOr("content", "")
		if text == "" {
			text = strings.TrimSpace(s.Text())
		}
		price, found = utils.ParsePrice(text)
		return !found
	})
	return price, found
}

// Refresh fetches the product's source page and stores the new price in c.
func (u *Updater) Refresh(ctx context.Context, c *catalog.Catalog, id string) (catalog.Product, error) {
	p, err := c.ByID(id)
	if err != nil {
		return catalog.Product{}, err
	}
	if p.SourceURL == "" {
		return catalog.Product{}, errors.Wrapf(ErrNoSource, "id %q", id)
	}

	q, err := u.Fetch(ctx, p.SourceURL)
	if err != nil {
		return catalog.Product{}, errors.Wrapf(err, "refresh %s", id)
	}
	return c.UpdatePrice(id, q.Price, q.Original)
}
