// Package suggest builds autocomplete suggestions for the storefront search box.
package suggest

import "github.com/bastiangx/shopserve/pkg/catalog"

// Suggester defines the interface for search suggestion engines
type Suggester interface {
	// Suggest returns ordered, unique suggestions for the text typed so far
	Suggest(query string, products []catalog.Product) []string

	// Stats returns statistics about the loaded prediction data
	Stats() map[string]int
}
