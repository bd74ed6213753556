// Package billing prices carts, totals them and works out the change to hand back.
// It has no storage dependencies; callers resolve products and denominations.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept on every monetary amount.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// MaxCashPaid bounds the tendered amount so whole-unit change always fits in an int64.
var MaxCashPaid = decimal.New(1, 15)

// Round2 rounds half away from zero to two places, which is half-up for the
// non-negative amounts a till deals with.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ParseAmount reads a tendered cash amount. Anything unparseable counts as zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return Round2(d)
}
