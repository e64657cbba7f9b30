package cart

import (
	"github.com/shopspring/decimal"
)

// Rules are the store-wide pricing settings.
type Rules struct {
	// FreeShippingThreshold is the discounted subtotal at which shipping becomes free
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	// TaxRate is a fraction, e.g. 0.08
	TaxRate decimal.Decimal
}

// Totals is the priced breakdown of a cart.
type Totals struct {
	Items    int             `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Savings  decimal.Decimal `json:"savings"`
	Discount decimal.Decimal `json:"discount"`
	Coupon   string          `json:"coupon,omitempty"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices the cart. coupon may be nil. An ineligible coupon is an error
// and no totals are returned, so callers can tell the shopper why.
func Quote(c *Cart, coupon *Coupon, rules Rules) (Totals, error) {
	t := Totals{
		Subtotal: decimal.Zero,
		Savings:  decimal.Zero,
		Discount: decimal.Zero,
		Shipping: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, l := range c.lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		t.Items += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.Product.Price.Mul(qty))
		t.Savings = t.Savings.Add(l.Product.Savings().Mul(qty))
	}

	if coupon != nil && !c.Empty() {
		off, err := coupon.Discount(t.Subtotal)
		if err != nil {
			return Totals{}, err
		}
		t.Discount = off.Round(2)
		t.Coupon = coupon.Code
	}

	discounted := t.Subtotal.Sub(t.Discount)
	if !c.Empty() && discounted.LessThan(rules.FreeShippingThreshold) {
		t.Shipping = rules.ShippingFee
	}

	t.Tax = discounted.Mul(rules.TaxRate).Round(2)
	t.Subtotal = t.Subtotal.Round(2)
	t.Savings = t.Savings.Round(2)
	t.Total = discounted.Add(t.Shipping).Add(t.Tax).Round(2)
	return t, nil
}
