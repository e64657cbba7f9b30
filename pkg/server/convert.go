package server

import (
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/filter"
)

func toProductMsg(p catalog.Product) ProductMsg {
	m := ProductMsg{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Discount:    p.DiscountPercent(),
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Brand:       p.Brand,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		InStock:     p.InStock,
		Tags:        p.Tags,
	}
	if p.OriginalPrice != nil {
		m.OriginalPrice = p.OriginalPrice.StringFixed(2)
	}
	if !p.CreatedAt.IsZero() {
		m.CreatedAt = p.CreatedAt.Unix()
	}
	return m
}

func toProductMsgs(products []catalog.Product) []ProductMsg {
	out := make([]ProductMsg, len(products))
	for i, p := range products {
		out[i] = toProductMsg(p)
	}
	return out
}

func toNavItemMsgs(items []catalog.NavigationItem) []NavItemMsg {
	out := make([]NavItemMsg, len(items))
	for i, item := range items {
		out[i] = NavItemMsg{
			Kind:     item.Kind.String(),
			ID:       item.ID,
			Name:     item.Name,
			Parent:   item.Parent,
			Children: toNavItemMsgs(item.Children),
		}
	}
	return out
}

// toFacets converts the wire selection. A nil message selects everything.
func toFacets(m *FacetsMsg, defaultSort string) (filter.Facets, error) {
	if m == nil {
		return filter.Facets{Sort: filter.ParseSortKey(defaultSort)}, nil
	}
	priceRange, err := filter.ParseRange(m.PriceMin, m.PriceMax)
	if err != nil {
		return filter.Facets{}, err
	}
	sort := m.Sort
	if sort == "" {
		sort = defaultSort
	}
	return filter.Facets{
		Category:    m.Category,
		Subcategory: m.Subcategory,
		SearchTerm:  m.Search,
		PriceRange:  priceRange,
		Brands:      m.Brands,
		Ratings:     m.Ratings,
		InStockOnly: m.InStock,
		Sort:        filter.ParseSortKey(sort),
	}, nil
}
