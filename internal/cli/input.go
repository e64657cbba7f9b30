// Package cli is an interactive prompt for trying searches against the loaded catalog.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/filter"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	wordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	priceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Options configure an InputHandler
type Options struct {
	Catalog   *catalog.Catalog
	Suggester suggest.Suggester
	History   *history.Manager
	// Limit caps printed suggestions and products
	Limit       int
	MaxLength   int
	DefaultSort string
	Input       io.Reader
	Logger      *log.Logger
}

// InputHandler reads lines from the terminal. Plain text prints
// suggestions, "!term" runs a search, ":history" and ":clear" manage
// recent searches.
type InputHandler struct {
	catalog     *catalog.Catalog
	suggester   suggest.Suggester
	history     *history.Manager
	limit       int
	maxLength   int
	defaultSort filter.SortKey
	input       io.Reader
	log         *log.Logger
}

// NewInputHandler handles initialization of the InputHandler
func NewInputHandler(opts Options) *InputHandler {
	if opts.Suggester == nil {
		opts.Suggester = suggest.NewEngine(nil)
	}
	if opts.History == nil {
		opts.History = history.NewManager(nil, "", 0)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStatic(nil)
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = suggest.MaxQueryLength
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &InputHandler{
		catalog:     opts.Catalog,
		suggester:   opts.Suggester,
		history:     opts.History,
		limit:       opts.Limit,
		maxLength:   opts.MaxLength,
		defaultSort: filter.ParseSortKey(opts.DefaultSort),
		input:       opts.Input,
		log:         opts.Logger,
	}
}

// Start runs the prompt loop until input ends or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context) error {
	h.log.Print("shopserve CLI")
	h.log.Print("type to see suggestions, !term to search, :history, :clear (Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.log.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(ctx, line)
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	switch {
	case line == ":history":
		h.printHistory()
	case line == ":clear":
		if err := h.history.Clear(ctx); err != nil {
			h.log.Errorf("Clearing history: %v", err)
			return
		}
		h.log.Print("History cleared")
	case strings.HasPrefix(line, "!"):
		h.search(ctx, strings.TrimSpace(line[1:]))
	default:
		h.suggest(line)
	}
}

func (h *InputHandler) suggest(query string) {
	if utils.RuneLen(query) > h.maxLength {
		h.log.Errorf("Query too long: %s", query)
		return
	}

	start := time.Now()
	suggestions := h.suggester.Suggest(query, h.catalog.Products())
	h.log.Debugf("Took [ %v ] for '%s'", time.Since(start), query)

	if len(suggestions) > h.limit {
		suggestions = suggestions[:h.limit]
	}

	h.log.Printf("%d suggestions for '%s':", len(suggestions), query)
	for i, s := range suggestions {
		h.log.Printf("%2d. %s", i+1, wordStyle.Render(s))
	}
}

func (h *InputHandler) search(ctx context.Context, term string) {
	if term == "" {
		h.log.Error("Nothing to search for")
		return
	}

	if _, err := h.history.Add(ctx, term); err != nil {
		h.log.Warnf("Search history not saved: %v", err)
	}

	products := filter.FilterAndSort(h.catalog.Products(), filter.Facets{
		SearchTerm: term,
		Sort:       h.defaultSort,
	})
	if len(products) == 0 {
		h.log.Warnf("No products match '%s'", term)
		return
	}

	h.log.Printf("%d products match '%s':", len(products), term)
	for i, p := range products {
		if i == h.limit {
			h.log.Print(dimStyle.Render(fmt.Sprintf("... and %d more", len(products)-h.limit)))
			break
		}
		h.log.Printf("%2d. %-40s %s  %s", i+1, wordStyle.Render(p.Name), priceStyle.Render(p.Price.StringFixed(2)),
			dimStyle.Render(fmt.Sprintf("%.1f★ (%s reviews)", p.Rating, formatWithCommas(p.ReviewCount))))
	}
}

func (h *InputHandler) printHistory() {
	entries := h.history.Entries()
	if len(entries) == 0 {
		h.log.Print("No recent searches")
		return
	}
	h.log.Print("Recent searches:")
	for i, term := range entries {
		h.log.Printf("%2d. %s", i+1, term)
	}
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	if n < 1000 && n > -1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	sign := ""
	if str[0] == '-' {
		sign, str = "-", str[1:]
	}
	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return sign + b.String()
}
