/*
Package server implements msgpack IPC for the storefront discovery services.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. Logs go to stderr so they never mix with replies.

# IPC

Every request carries an id and an op, plus the fields the op needs:

	{"id": "r1", "op": "suggest", "q": "ip", "l": 8}
	{"id": "r2", "op": "filter", "f": {"cat": "Smartphones", "s": true, "o": "price-low"}}
	{"id": "r3", "op": "bounds", "cat": "Smartphones"}
	{"id": "r4", "op": "history_add", "term": "iphone 15"}
	{"id": "r5", "op": "cart_quote", "items": [{"id": "p1", "q": 2}], "coupon": "WELCOME10"}

Replies echo the id and include the handling time in microseconds:

	{"id": "r1", "s": ["ip", "iPhone", "iPad"], "c": 3, "t": 41}

Failures reply with an error map instead:

	{"id": "r5", "e": "unknown product \"p9\"", "c": 404}

Codes are 400 for malformed or invalid input, 404 for unknown products and
500 for everything else.

Prices are sent as decimal strings ("999.00") so clients never see float
rounding.

# Ops

	suggest        q, l        suggestions for the typed text
	filter         f           filtered and sorted products
	bounds         cat         brand, rating and price options for a category
	nav                        category menu
	history                    recent searches
	history_add    term        record a submitted search
	history_clear              forget recent searches
	cart_quote     items, coupon
	reload                     re-read the catalog source
	health
*/
package server

// Request is the envelope for every op. Unused fields are omitted by clients.
type Request struct {
	ID       string        `msgpack:"id"`
	Op       string        `msgpack:"op"`
	Query    string        `msgpack:"q,omitempty"`
	Limit    int           `msgpack:"l,omitempty"`
	Facets   *FacetsMsg    `msgpack:"f,omitempty"`
	Category string        `msgpack:"cat,omitempty"`
	Term     string        `msgpack:"term,omitempty"`
	Items    []CartItemMsg `msgpack:"items,omitempty"`
	Coupon   string        `msgpack:"coupon,omitempty"`
}

// FacetsMsg is the wire form of a facet selection
type FacetsMsg struct {
	Category    string   `msgpack:"cat,omitempty"`
	Subcategory string   `msgpack:"sub,omitempty"`
	Search      string   `msgpack:"q,omitempty"`
	PriceMin    string   `msgpack:"lo,omitempty"`
	PriceMax    string   `msgpack:"hi,omitempty"`
	Brands      []string `msgpack:"b,omitempty"`
	Ratings     []int    `msgpack:"r,omitempty"`
	InStock     bool     `msgpack:"s,omitempty"`
	Sort        string   `msgpack:"o,omitempty"`
}

// CartItemMsg is one product id and quantity in a quote request
type CartItemMsg struct {
	ID       string `msgpack:"id"`
	Quantity int    `msgpack:"q"`
}

// ProductMsg is the wire form of a product
type ProductMsg struct {
	ID            string   `msgpack:"id"`
	Name          string   `msgpack:"n"`
	Description   string   `msgpack:"d,omitempty"`
	Price         string   `msgpack:"p"`
	OriginalPrice string   `msgpack:"op,omitempty"`
	Discount      int      `msgpack:"dp,omitempty"`
	Category      string   `msgpack:"cat"`
	Subcategory   string   `msgpack:"sub,omitempty"`
	Brand         string   `msgpack:"b,omitempty"`
	Rating        float64  `msgpack:"r"`
	ReviewCount   int      `msgpack:"rc"`
	InStock       bool     `msgpack:"s"`
	Tags          []string `msgpack:"tags,omitempty"`
	CreatedAt     int64    `msgpack:"ts"`
}

// SuggestResponse carries suggestion strings
type SuggestResponse struct {
	ID          string   `msgpack:"id"`
	Suggestions []string `msgpack:"s"`
	Count       int      `msgpack:"c"`
	TimeTaken   int64    `msgpack:"t"`
}

// FilterResponse carries matching products
type FilterResponse struct {
	ID        string       `msgpack:"id"`
	Products  []ProductMsg `msgpack:"p"`
	Count     int          `msgpack:"c"`
	TimeTaken int64        `msgpack:"t"`
}

// BoundsResponse carries facet options for a category
type BoundsResponse struct {
	ID        string   `msgpack:"id"`
	Brands    []string `msgpack:"b"`
	Ratings   []int    `msgpack:"r"`
	MinPrice  string   `msgpack:"lo"`
	MaxPrice  string   `msgpack:"hi"`
	TimeTaken int64    `msgpack:"t"`
}

// NavItemMsg is one menu entry
type NavItemMsg struct {
	Kind     string       `msgpack:"k"`
	ID       string       `msgpack:"id"`
	Name     string       `msgpack:"n"`
	Parent   string       `msgpack:"parent,omitempty"`
	Children []NavItemMsg `msgpack:"ch,omitempty"`
}

// NavResponse carries the category menu
type NavResponse struct {
	ID        string       `msgpack:"id"`
	Items     []NavItemMsg `msgpack:"nav"`
	TimeTaken int64        `msgpack:"t"`
}

// HistoryResponse carries recent searches, most recent first
type HistoryResponse struct {
	ID        string   `msgpack:"id"`
	History   []string `msgpack:"h"`
	TimeTaken int64    `msgpack:"t"`
}

// QuoteResponse carries cart totals
type QuoteResponse struct {
	ID        string `msgpack:"id"`
	Items     int    `msgpack:"n"`
	Subtotal  string `msgpack:"sub"`
	Savings   string `msgpack:"sav"`
	Discount  string `msgpack:"disc"`
	Coupon    string `msgpack:"cp,omitempty"`
	Shipping  string `msgpack:"ship"`
	Tax       string `msgpack:"tax"`
	Total     string `msgpack:"tot"`
	TimeTaken int64  `msgpack:"t"`
}

// StatusResponse answers health, reload and history_clear
type StatusResponse struct {
	ID       string `msgpack:"id"`
	Status   string `msgpack:"status"`
	Products int    `msgpack:"products,omitempty"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
