package catalog

import (
	"fmt"
	"strings"
)

// NavKind discriminates NavigationItem variants.
type NavKind int

const (
	KindUnknown NavKind = iota
	KindCategory
	KindSubcategory
)

func (k NavKind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindSubcategory:
		return "subcategory"
	default:
		return "unknown"
	}
}

// Category is a flat category record. ParentID is empty for top-level categories.
type Category struct {
	ID       string
	Name     string
	ParentID string
}

// NavigationItem is a node of the storefront menu: either a top-level
// category or a subcategory under one.
type NavigationItem struct {
	Kind     NavKind          `json:"kind"`
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	ParentID string           `json:"parentId,omitempty"`
	Parent   string           `json:"parent,omitempty"`
	Children []NavigationItem `json:"children,omitempty"`
}

// Facet returns the category and subcategory selection this item stands for.
// ok is false for unknown kinds.
func (n NavigationItem) Facet() (category, subcategory string, ok bool) {
	switch n.Kind {
	case KindCategory:
		return n.Name, "", true
	case KindSubcategory:
		return n.Parent, n.Name, true
	default:
		return "", "", false
	}
}

// Matches reports whether p belongs under this navigation item.
func (n NavigationItem) Matches(p Product) bool {
	category, subcategory, ok := n.Facet()
	if !ok {
		return false
	}
	if p.Category != category {
		return false
	}
	return subcategory == "" || p.Subcategory == subcategory
}

// BuildNavigation turns flat category records into a two-level tree.
// Parents keep input order; each parent's children keep input order too.
// Subcategories whose parent is missing are dropped.
func BuildNavigation(categories []Category) []NavigationItem {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var items []NavigationItem
	for _, c := range categories {
		if c.ParentID != "" {
			continue
		}
		item := NavigationItem{
			Kind:     KindCategory,
			ID:       c.ID,
			Name:     c.Name,
			Children: []NavigationItem{},
		}
		for _, sub := range categories {
			if sub.ParentID != c.ID {
				continue
			}
			item.Children = append(item.Children, NavigationItem{
				Kind:     KindSubcategory,
				ID:       sub.ID,
				Name:     sub.Name,
				ParentID: c.ID,
				Parent:   names[c.ID],
			})
		}
		items = append(items, item)
	}
	return items
}

// CategoriesFromProducts derives category records from the products' own
// Category and Subcategory fields, in first-seen order. Categories are told
// apart by their exact name; IDs are slugs, suffixed "-2", "-3", ... when two
// names slug the same.
func CategoriesFromProducts(products []Product) []Category {
	var out []Category
	parents := make(map[string]string)
	subs := make(map[[2]string]bool)
	used := make(map[string]bool)

	uniqueID := func(base string) string {
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		used[id] = true
		return id
	}

	for _, p := range products {
		if p.Category == "" {
			continue
		}
		parentID, ok := parents[p.Category]
		if !ok {
			parentID = uniqueID(Slug(p.Category))
			parents[p.Category] = parentID
			out = append(out, Category{ID: parentID, Name: p.Category})
		}
		if p.Subcategory == "" {
			continue
		}
		key := [2]string{p.Category, p.Subcategory}
		if !subs[key] {
			subs[key] = true
			out = append(out, Category{
				ID:       uniqueID(parentID + "/" + Slug(p.Subcategory)),
				Name:     p.Subcategory,
				ParentID: parentID,
			})
		}
	}
	return out
}

// Slug lowercases name and joins its words with '-'.
func Slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	return strings.Join(fields, "-")
}
