package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleProducts() []Product {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Product{
		{
			ID: "p1", Name: "iPhone 15", Brand: "Apple", Category: "Smartphones", Subcategory: "iOS",
			Price: dec("999"), OriginalPrice: decPtr("1099"), Rating: 4.8, ReviewCount: 120,
			InStock: true, Tags: []string{"phone", "5g"}, CreatedAt: created,
		},
		{
			ID: "p2", Name: "Samsung Galaxy S24", Brand: "Samsung", Category: "Smartphones", Subcategory: "Android",
			Price: dec("899"), Rating: 4.6, ReviewCount: 80, CreatedAt: created.Add(24 * time.Hour),
		},
		{
			ID: "p3", Name: "MacBook Air", Brand: "Apple", Category: "Laptops",
			Price: dec("1199.99"), Rating: 4.7, InStock: true, CreatedAt: created.Add(-24 * time.Hour),
		},
	}
}

func TestProductHelpers(t *testing.T) {
	p := sampleProducts()[0]

	assert.Equal(t, 4, p.RatingBucket())
	assert.True(t, p.OnSale())
	assert.True(t, dec("100").Equal(p.Savings()))
	assert.Equal(t, 9, p.DiscountPercent())

	t.Run("NoOriginalPrice", func(t *testing.T) {
		p := sampleProducts()[1]
		assert.False(t, p.OnSale())
		assert.True(t, p.Savings().IsZero())
		assert.Equal(t, 0, p.DiscountPercent())
	})

	t.Run("OriginalBelowPrice", func(t *testing.T) {
		p := Product{Price: dec("50"), OriginalPrice: decPtr("40")}
		assert.False(t, p.OnSale())
		assert.Equal(t, 0, p.DiscountPercent())
	})
}

func TestBuildNavigation(t *testing.T) {
	categories := []Category{
		{ID: "phones", Name: "Smartphones"},
		{ID: "ios", Name: "iOS", ParentID: "phones"},
		{ID: "laptops", Name: "Laptops"},
		{ID: "android", Name: "Android", ParentID: "phones"},
		{ID: "orphan", Name: "Orphan", ParentID: "missing"},
	}

	nav := BuildNavigation(categories)
	require.Len(t, nav, 2)

	assert.Equal(t, KindCategory, nav[0].Kind)
	assert.Equal(t, "Smartphones", nav[0].Name)
	require.Len(t, nav[0].Children, 2)
	assert.Equal(t, "iOS", nav[0].Children[0].Name)
	assert.Equal(t, "Android", nav[0].Children[1].Name)
	assert.Equal(t, KindSubcategory, nav[0].Children[1].Kind)
	assert.Equal(t, "Smartphones", nav[0].Children[1].Parent)

	assert.Equal(t, "Laptops", nav[1].Name)
	assert.Empty(t, nav[1].Children)
}

func TestNavigationItemFacet(t *testing.T) {
	products := sampleProducts()
	nav := BuildNavigation(CategoriesFromProducts(products))
	require.Len(t, nav, 2)

	category, sub, ok := nav[0].Facet()
	require.True(t, ok)
	assert.Equal(t, "Smartphones", category)
	assert.Empty(t, sub)
	assert.True(t, nav[0].Matches(products[0]))
	assert.True(t, nav[0].Matches(products[1]))
	assert.False(t, nav[0].Matches(products[2]))

	android := nav[0].Children[1]
	category, sub, ok = android.Facet()
	require.True(t, ok)
	assert.Equal(t, "Smartphones", category)
	assert.Equal(t, "Android", sub)
	assert.False(t, android.Matches(products[0]))
	assert.True(t, android.Matches(products[1]))

	_, _, ok = NavigationItem{Name: "???"}.Facet()
	assert.False(t, ok)
	assert.False(t, NavigationItem{Name: "Smartphones"}.Matches(products[0]))
}

func TestCategoriesFromProductsCollidingSlugs(t *testing.T) {
	products := []Product{
		{ID: "p1", Name: "Speaker", Category: "TV & Audio"},
		{ID: "p2", Name: "Soundbar", Category: "TV Audio", Subcategory: "Soundbars"},
		{ID: "p3", Name: "Case", Category: "Phones"},
		{ID: "p4", Name: "Cable", Category: "phones", Subcategory: "Cables"},
	}

	categories := CategoriesFromProducts(products)
	assert.Equal(t, []Category{
		{ID: "tv-audio", Name: "TV & Audio"},
		{ID: "tv-audio-2", Name: "TV Audio"},
		{ID: "tv-audio-2/soundbars", Name: "Soundbars", ParentID: "tv-audio-2"},
		{ID: "phones", Name: "Phones"},
		{ID: "phones-2", Name: "phones"},
		{ID: "phones-2/cables", Name: "Cables", ParentID: "phones-2"},
	}, categories)

	nav := BuildNavigation(categories)
	require.Len(t, nav, 4)
	assert.Empty(t, nav[0].Children)
	require.Len(t, nav[1].Children, 1)

	soundbars := nav[1].Children[0]
	category, sub, ok := soundbars.Facet()
	require.True(t, ok)
	assert.Equal(t, "TV Audio", category)
	assert.Equal(t, "Soundbars", sub)
	assert.True(t, soundbars.Matches(products[1]))
	assert.False(t, nav[0].Matches(products[1]))

	assert.True(t, nav[3].Children[0].Matches(products[3]))
	assert.False(t, nav[2].Matches(products[3]))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "home-kitchen", Slug("Home & Kitchen"))
	assert.Equal(t, "smartphones", Slug("  Smartphones "))
}

func TestFileSourceJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	data := `[
		{"id": "a", "name": "Kindle", "price": 99.5, "originalPrice": "129", "category": "E-readers",
		 "brand": "Amazon", "rating": 4.4, "reviewCount": 10, "inStock": true,
		 "tags": ["reader"], "createdAt": "2024-01-02T03:04:05Z"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	products, err := NewFileSource(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Kindle", p.Name)
	assert.True(t, dec("99.5").Equal(p.Price))
	require.NotNil(t, p.OriginalPrice)
	assert.True(t, dec("129").Equal(*p.OriginalPrice))
	assert.Equal(t, []string{"reader"}, p.Tags)
	assert.True(t, p.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestFileSourceSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.msgpack")
	want := sampleProducts()
	require.NoError(t, SaveSnapshot(path, want))

	got, err := NewFileSource(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, want[i].Price.Equal(got[i].Price))
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.Equal(t, want[i].OriginalPrice == nil, got[i].OriginalPrice == nil)
	}
	assert.True(t, dec("1099").Equal(*got[0].OriginalPrice))
}

func TestFileSourceRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"UnknownExtension", "products.csv", "id,name\n"},
		{"JSONObjectNotArray", "products.json", `{"id": "a"}`},
		{"MsgpackNotMap", "products.msgpack", "\x93\x01\x02\x03"},
		{"TooSmall", "products.json", "["},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+"-"+tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			_, err := NewFileSource(path).Products(context.Background())
			assert.Error(t, err)
		})
	}

	_, err := NewFileSource(filepath.Join(dir, "x.csv")).Products(context.Background())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestCatalogSnapshot(t *testing.T) {
	c := NewStatic(sampleProducts())
	assert.Equal(t, 3, c.Len())

	p, err := c.ByID("p2")
	require.NoError(t, err)
	assert.Equal(t, "Samsung Galaxy S24", p.Name)

	_, err = c.ByID("nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	before := c.Products()
	updated, err := c.UpdatePrice("p2", dec("799"), decPtr("899"))
	require.NoError(t, err)
	assert.True(t, dec("799").Equal(updated.Price))

	// slices handed out earlier keep the old price
	assert.True(t, dec("899").Equal(before[1].Price))
	assert.True(t, dec("799").Equal(c.Products()[1].Price))

	stats := c.Stats()
	assert.Equal(t, 3, stats["totalProducts"])
	assert.Equal(t, 2, stats["inStock"])

	nav := c.Navigation()
	require.Len(t, nav, 2)
	assert.Equal(t, "Laptops", nav[1].Name)
}

type failingSource struct{}

func (failingSource) Products(context.Context) ([]Product, error) {
	return nil, errors.New("boom")
}

func TestCatalogReloadKeepsSnapshotOnError(t *testing.T) {
	c := New(failingSource{})
	c.replace(sampleProducts())

	err := c.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, c.Len())
}
