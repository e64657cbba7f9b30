package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(input string) (*InputHandler, *history.Manager, *bytes.Buffer) {
	var out bytes.Buffer
	manager := history.NewManager(history.NewMemoryStore(), "", 0)
	h := NewInputHandler(Options{
		Catalog: catalog.NewStatic([]catalog.Product{
			{ID: "1", Name: "iPhone 15", Brand: "Apple", Category: "Smartphones", Price: decimal.NewFromInt(999), Rating: 4.8, ReviewCount: 1520},
			{ID: "2", Name: "Kettle", Brand: "Acme", Category: "Kitchen", Price: decimal.NewFromInt(30), Rating: 3.9},
		}),
		History: manager,
		Input:   strings.NewReader(input),
		Logger:  log.New(&out),
	})
	return h, manager, &out
}

func TestInputHandlerSession(t *testing.T) {
	h, manager, out := newHandler("ip\n!kettle\n!iphone\n:history\n")

	require.NoError(t, h.Start(context.Background()))

	text := out.String()
	assert.Contains(t, text, "iPhone 15")
	assert.Contains(t, text, "1 products match 'kettle'")
	assert.Contains(t, text, "1,520 reviews")
	assert.Equal(t, history.History{"iphone", "kettle"}, manager.Entries())
}

func TestInputHandlerClear(t *testing.T) {
	h, manager, out := newHandler("!kettle\n:clear\n:history\n")

	require.NoError(t, h.Start(context.Background()))
	assert.Empty(t, manager.Entries())
	assert.Contains(t, out.String(), "No recent searches")
}

func TestInputHandlerSuggestsLiteralForAnyQuery(t *testing.T) {
	h, _, out := newHandler("128\nzzz\niii\n")

	require.NoError(t, h.Start(context.Background()))
	text := out.String()
	for _, q := range []string{"128", "zzz", "iii"} {
		assert.Contains(t, text, "suggestions for '"+q+"'")
		assert.NotContains(t, text, "No suggestions for '"+q+"'")
	}
	assert.NotContains(t, text, "filtered out")
}

func TestFormatWithCommas(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for n, want := range tests {
		assert.Equal(t, want, formatWithCommas(n))
	}
}
