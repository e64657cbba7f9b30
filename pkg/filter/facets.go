// Package filter narrows and orders an in-memory product list by facet selections.
//
// Every function here is a pure transformation over a read-only snapshot:
// the input slice is never reordered or modified, and no combination of
// facets is an error, an impossible selection simply matches nothing.
package filter

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned by ParseRange for unusable price bounds.
var ErrInvalidRange = errors.New("invalid price range")

// SortKey selects the order applied after filtering.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
	SortName      SortKey = "name"
)

// ParseSortKey maps a wire value to a SortKey. Unknown values fall back to featured.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceLow, SortPriceHigh, SortRating, SortNewest, SortName:
		return k
	default:
		return SortFeatured
	}
}

// Range is an inclusive price interval.
type Range struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// Contains reports whether low <= price <= high
func (r Range) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Low) && price.LessThanOrEqual(r.High)
}

// ParseRange builds a price range from its wire form. Both bounds empty
// means no range. Returns ErrInvalidRange when only one bound is set, a bound
// is not a number or negative, or low is above high.
func ParseRange(low, high string) (*Range, error) {
	low, high = strings.TrimSpace(low), strings.TrimSpace(high)
	if low == "" && high == "" {
		return nil, nil
	}
	if low == "" || high == "" {
		return nil, errors.Wrap(ErrInvalidRange, "both bounds are required")
	}

	lo, err := decimal.NewFromString(low)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRange, "low %q", low)
	}
	hi, err := decimal.NewFromString(high)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRange, "high %q", high)
	}
	if lo.IsNegative() || lo.GreaterThan(hi) {
		return nil, errors.Wrapf(ErrInvalidRange, "%s..%s", low, high)
	}
	return &Range{Low: lo, High: hi}, nil
}

// Facets is a single facet selection. The zero value matches every product
// and keeps the featured order.
type Facets struct {
	// Category is matched exactly. Empty selects all categories.
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	SearchTerm  string `json:"searchTerm,omitempty"`
	// PriceRange nil means no price facet is active.
	PriceRange *Range   `json:"priceRange,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	// Ratings are "this many stars and up" thresholds, OR-combined.
	Ratings     []int   `json:"ratings,omitempty"`
	InStockOnly bool    `json:"inStockOnly,omitempty"`
	Sort        SortKey `json:"sort,omitempty"`
}
