package filter

import (
	"sort"
	"strings"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// predicate reports whether a product survives one facet
type predicate func(p *catalog.Product) bool

// FilterAndSort returns the products passing every active facet in f,
// ordered by f.Sort. The result is a new slice, empty (not nil) when
// nothing matches.
func FilterAndSort(products []catalog.Product, f Facets) []catalog.Product {
	preds := f.predicates()

	out := make([]catalog.Product, 0, len(products))
next:
	for i := range products {
		for _, keep := range preds {
			if !keep(&products[i]) {
				continue next
			}
		}
		out = append(out, products[i])
	}

	Sort(out, f.Sort)
	return out
}

// predicates builds the active facet checks, in application order.
func (f Facets) predicates() []predicate {
	var preds []predicate

	if f.Category != "" {
		category := f.Category
		preds = append(preds, func(p *catalog.Product) bool {
			return p.Category == category
		})
	}
	if f.Subcategory != "" {
		sub := f.Subcategory
		preds = append(preds, func(p *catalog.Product) bool {
			return p.Subcategory == sub
		})
	}

	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		preds = append(preds, func(p *catalog.Product) bool {
			return utils.ContainsLower(p.Name, term) ||
				utils.ContainsLower(p.Brand, term) ||
				utils.ContainsLower(p.Description, term)
		})
	}

	if f.PriceRange != nil {
		r := *f.PriceRange
		preds = append(preds, func(p *catalog.Product) bool {
			return r.Contains(p.Price)
		})
	}

	if len(f.Brands) > 0 {
		brands := make(map[string]struct{}, len(f.Brands))
		for _, b := range f.Brands {
			if b != "" {
				brands[b] = struct{}{}
			}
		}
		preds = append(preds, func(p *catalog.Product) bool {
			_, ok := brands[p.Brand]
			return ok
		})
	}

	if len(f.Ratings) > 0 {
		ratings := f.Ratings
		preds = append(preds, func(p *catalog.Product) bool {
			bucket := p.RatingBucket()
			for _, r := range ratings {
				if bucket >= r {
					return true
				}
			}
			return false
		})
	}

	if f.InStockOnly {
		preds = append(preds, func(p *catalog.Product) bool {
			return p.InStock
		})
	}

	return preds
}

// Sort orders products in place by key. The sort is stable so equal
// elements keep their relative order; SortFeatured leaves the slice as is.
func Sort(products []catalog.Product, key SortKey) {
	var less func(a, b *catalog.Product) bool

	switch key {
	case SortPriceLow:
		less = func(a, b *catalog.Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHigh:
		less = func(a, b *catalog.Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b *catalog.Product) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b *catalog.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortName:
		// collate.Collator is not safe for concurrent use
		c := collate.New(language.English)
		less = func(a, b *catalog.Product) bool { return c.CompareString(a.Name, b.Name) < 0 }
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(&products[i], &products[j])
	})
}
