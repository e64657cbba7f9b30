/*
Package catalog holds the storefront's product records and the sources they are loaded from.

A Catalog is a read-only snapshot as far as the filter and suggestion code is
concerned: callers receive the shared slice and must not mutate it. Price
updates replace the snapshot instead of editing it in place.

Sources:

	catalog.NewFileSource("products.json")     // JSON array of products
	catalog.NewFileSource("products.msgpack")  // msgpack snapshot written by SaveSnapshot
	catalog.OpenSQLite(ctx, "catalog.db")      // products table, see Migrate
*/
package catalog

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a single storefront item.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Category      string           `json:"category"`
	Subcategory   string           `json:"subcategory,omitempty"`
	Brand         string           `json:"brand"`
	Rating        float64          `json:"rating"`
	ReviewCount   int              `json:"reviewCount"`
	InStock       bool             `json:"inStock"`
	Tags          []string         `json:"tags"`
	CreatedAt     time.Time        `json:"createdAt"`
	SourceURL     string           `json:"sourceUrl,omitempty"`
}

// RatingBucket is floor(rating), the star bucket used by rating facets.
func (p Product) RatingBucket() int {
	return int(math.Floor(p.Rating))
}

// OnSale reports whether the product has an original price above its current price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// Savings is OriginalPrice - Price, or zero when the product is not on sale.
func (p Product) Savings() decimal.Decimal {
	if !p.OnSale() {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(p.Price)
}

// DiscountPercent returns the whole-number discount off the original price.
// 0 when there is no original price or it is not above the current price.
func (p Product) DiscountPercent() int {
	if !p.OnSale() || p.OriginalPrice.IsZero() {
		return 0
	}
	pct := p.Savings().Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}
