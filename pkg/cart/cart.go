// Package cart prices a shopping cart: line totals, sale savings, coupons,
// shipping and tax, all in decimal arithmetic.
package cart

import (
	"github.com/bastiangx/shopserve/pkg/catalog"
)

// Line is one product in the cart
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart keeps lines in the order products were first added.
type Cart struct {
	lines []Line
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// Add puts qty more of p in the cart. Non-positive quantities are ignored.
func (c *Cart) Add(p catalog.Product, qty int) {
	if qty <= 0 {
		return
	}
	if i := c.find(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
}

// SetQuantity sets the quantity of a product already in the cart.
// A quantity of zero or less removes the line. Unknown ids are ignored.
func (c *Cart) SetQuantity(id string, qty int) {
	i := c.find(id)
	if i < 0 {
		return
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity = qty
}

// Remove drops the product's line
func (c *Cart) Remove(id string) {
	c.SetQuantity(id, 0)
}

// Count returns the total number of items
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the cart's lines
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Empty reports whether the cart has no lines
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) find(id string) int {
	for i, l := range c.lines {
		if l.Product.ID == id {
			return i
		}
	}
	return -1
}
