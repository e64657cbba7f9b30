package suggest

import (
	"strings"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/catalog"
)

// MaxQueryLength is the longest query the surfaces accept, in runes.
const MaxQueryLength = 100

// MaxProductMatches caps how many products contribute suggestions per query.
const MaxProductMatches = 5

// Engine ranks suggestions from the typed text, the prediction table,
// matching products and the common terms, in that order.
type Engine struct {
	table       *PredictionTable
	commonTerms []string
	maxProducts int
}

// Option configures an Engine
type Option func(*Engine)

// WithCommonTerms replaces the built-in common terms.
func WithCommonTerms(terms []string) Option {
	return func(e *Engine) {
		e.commonTerms = terms
	}
}

// WithMaxProducts sets the number of matching products consulted
func WithMaxProducts(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxProducts = n
		}
	}
}

// NewEngine creates an engine over table. A nil table uses DefaultTable.
func NewEngine(table *PredictionTable, opts ...Option) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	e := &Engine{
		table:       table,
		commonTerms: CommonTerms,
		maxProducts: MaxProductMatches,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Suggest returns unique suggestions in first-insertion order:
// the trimmed query itself, prediction-table terms from the longest prefix
// down to one character, names/brands/categories of the first matching
// products, then common terms. Blank input yields an empty slice.
func (e *Engine) Suggest(query string, products []catalog.Product) []string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []string{}
	}
	lower := strings.ToLower(trimmed)

	seen := utils.NewSuggestionFilter(16)
	seen.Insert(trimmed)

	for i := utils.RuneLen(lower); i > 0; i-- {
		for _, term := range e.table.Lookup(utils.RunePrefix(lower, i)) {
			if utils.ContainsLower(term, lower) {
				seen.Insert(term)
			}
		}
	}

	matched := 0
	for i := range products {
		if matched >= e.maxProducts {
			break
		}
		p := &products[i]
		if !utils.ContainsLower(p.Name, lower) &&
			!utils.ContainsLower(p.Category, lower) &&
			!utils.ContainsLower(p.Brand, lower) {
			continue
		}
		matched++

		seen.Insert(p.Name)
		if p.Brand != "" {
			seen.Insert(p.Brand)
		}
		if p.Category != "" {
			seen.Insert(p.Category)
		}
	}

	for _, term := range e.commonTerms {
		if utils.ContainsLower(term, lower) {
			seen.Insert(term)
		}
	}

	return seen.Words()
}

// Stats returns statistics about the prediction data
func (e *Engine) Stats() map[string]int {
	return map[string]int{
		"prefixes":    e.table.Len(),
		"terms":       e.table.Terms(),
		"commonTerms": len(e.commonTerms),
		"maxProducts": e.maxProducts,
	}
}

var defaultEngine = NewEngine(nil)

// Suggest runs the built-in engine.
func Suggest(query string, products []catalog.Product) []string {
	return defaultEngine.Suggest(query, products)
}
