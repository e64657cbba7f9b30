package filter

import (
	"sort"

	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/shopspring/decimal"
)

var (
	// DefaultMinPrice and DefaultMaxPrice bound the price slider when a category has no products.
	DefaultMinPrice = decimal.Zero
	DefaultMaxPrice = decimal.NewFromInt(1000)
)

// Bounds are the facet options offered for a category.
type Bounds struct {
	Brands   []string        `json:"brands"`
	Ratings  []int           `json:"ratings"`
	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`
}

// DeriveBounds computes the brand list, rating buckets and price bounds over
// every product in category, before any other facet applies. An empty
// category means the whole list.
func DeriveBounds(products []catalog.Product, category string) Bounds {
	b := Bounds{
		Brands:   []string{},
		Ratings:  []int{},
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
	}

	brands := make(map[string]struct{})
	ratings := make(map[int]struct{})
	found := false

	for i := range products {
		p := &products[i]
		if category != "" && p.Category != category {
			continue
		}

		if p.Brand != "" {
			if _, ok := brands[p.Brand]; !ok {
				brands[p.Brand] = struct{}{}
				b.Brands = append(b.Brands, p.Brand)
			}
		}
		bucket := p.RatingBucket()
		if _, ok := ratings[bucket]; !ok {
			ratings[bucket] = struct{}{}
			b.Ratings = append(b.Ratings, bucket)
		}

		if !found {
			b.MinPrice, b.MaxPrice = p.Price, p.Price
			found = true
			continue
		}
		b.MinPrice = decimal.Min(b.MinPrice, p.Price)
		b.MaxPrice = decimal.Max(b.MaxPrice, p.Price)
	}

	sort.Strings(b.Brands)
	sort.Sort(sort.Reverse(sort.IntSlice(b.Ratings)))
	return b
}

// Range returns the bounds as a price range selection
func (b Bounds) Range() Range {
	return Range{Low: b.MinPrice, High: b.MaxPrice}
}
