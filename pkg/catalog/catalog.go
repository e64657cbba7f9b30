package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Catalog holds the current product snapshot loaded from a Source.
type Catalog struct {
	source   Source
	mu       sync.RWMutex
	products []Product
	index    map[string]int
	loadedAt time.Time
}

// New creates an empty catalog bound to source. Call Reload to populate it.
func New(source Source) *Catalog {
	return &Catalog{
		source:   source,
		products: []Product{},
		index:    map[string]int{},
	}
}

// NewStatic creates a catalog over a fixed product list, with no source to reload from.
func NewStatic(products []Product) *Catalog {
	c := New(nil)
	c.replace(products)
	return c
}

// Reload fetches the product list from the source and swaps the snapshot.
func (c *Catalog) Reload(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	products, err := c.source.Products(ctx)
	if err != nil {
		return errors.Wrap(err, "reload catalog")
	}
	c.replace(products)
	log.Debugf("Catalog reloaded: %d products", len(products))
	return nil
}

func (c *Catalog) replace(products []Product) {
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}

	c.mu.Lock()
	c.products = products
	c.index = index
	c.loadedAt = time.Now()
	c.mu.Unlock()
}

// Products returns the current snapshot. The slice is shared: do not modify it.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Len returns the number of products in the snapshot
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// ByID looks a product up by id
func (c *Catalog) ByID(id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return Product{}, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return c.products[i], nil
}

// UpdatePrice sets a product's price and original price.
// The snapshot is copied first so slices already handed out stay unchanged.
func (c *Catalog) UpdatePrice(id string, price decimal.Decimal, original *decimal.Decimal) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return Product{}, errors.Wrapf(ErrNotFound, "id %q", id)
	}

	next := make([]Product, len(c.products))
	copy(next, c.products)
	next[i].Price = price
	next[i].OriginalPrice = original
	c.products = next

	return next[i], nil
}

// Navigation builds the category menu from the current snapshot.
func (c *Catalog) Navigation() []NavigationItem {
	return BuildNavigation(CategoriesFromProducts(c.Products()))
}

// Stats returns basic figures about the loaded snapshot
func (c *Catalog) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inStock := 0
	for _, p := range c.products {
		if p.InStock {
			inStock++
		}
	}
	return map[string]int{
		"totalProducts": len(c.products),
		"inStock":       inStock,
	}
}
