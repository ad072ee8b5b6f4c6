package offer

import "github.com/shopspring/decimal"

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// roundMoney rounds half-up to two places. Amounts are only rounded once,
// when a discount is finalized.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// clamp keeps d within [lo, hi].
func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
