package cart

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCouponInvalid is returned for unknown, expired or ineligible coupons.
var ErrCouponInvalid = errors.New("coupon invalid")

// CouponKind selects how a coupon's value is applied.
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Coupon is a discount code.
type Coupon struct {
	Code     string
	Kind     CouponKind
	Value    decimal.Decimal
	MinOrder decimal.Decimal
	// ExpiresAt zero means the coupon never expires
	ExpiresAt time.Time
}

// Discount returns the amount taken off subtotal, never more than subtotal.
// Returns ErrCouponInvalid if subtotal is below MinOrder.
func (c Coupon) Discount(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.LessThan(c.MinOrder) {
		return decimal.Zero, errors.Wrapf(ErrCouponInvalid, "%s needs an order of at least %s", c.Code, c.MinOrder.StringFixed(2))
	}

	var off decimal.Decimal
	switch c.Kind {
	case CouponPercent:
		off = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case CouponFixed:
		off = c.Value
	default:
		return decimal.Zero, errors.Wrapf(ErrCouponInvalid, "%s has unknown kind %q", c.Code, c.Kind)
	}

	if off.IsNegative() {
		off = decimal.Zero
	}
	return decimal.Min(off, subtotal), nil
}

// Coupons is a set of coupons looked up by code, ignoring case.
type Coupons map[string]Coupon

// NewCoupons indexes list by upper-cased code
func NewCoupons(list []Coupon) Coupons {
	out := make(Coupons, len(list))
	for _, c := range list {
		out[strings.ToUpper(strings.TrimSpace(c.Code))] = c
	}
	return out
}

// Lookup returns the coupon for code if it exists and has not expired at now.
func (cs Coupons) Lookup(code string, now time.Time) (Coupon, error) {
	c, ok := cs[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Coupon{}, errors.Wrapf(ErrCouponInvalid, "unknown code %q", code)
	}
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return Coupon{}, errors.Wrapf(ErrCouponInvalid, "%s expired on %s", c.Code, c.ExpiresAt.Format(time.DateOnly))
	}
	return c, nil
}
