package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice extracts a decimal amount from scraped price text
// such as "$1,299.99" or "US $ 24.50 each". Returns false when no number is present.
func ParsePrice(priceStr string) (decimal.Decimal, bool) {
	clean := strings.ReplaceAll(priceStr, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return decimal.Zero, false
	}

	match := priceNumber.FindString(clean)
	if match == "" {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}
