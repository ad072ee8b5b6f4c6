package offer

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Scope is what a condition or benefit sees while an offer is evaluated: the
// basket snapshot, the evaluation's ledger, the tax mode and the offer itself.
type Scope struct {
	Basket  *Basket
	Ledger  *Ledger
	InclTax bool
	Offer   *ConditionalOffer
}

// Claim is a number of units of one line taken by an offer.
type Claim struct {
	Line     int
	Quantity int
}

// eligible returns the unit price of line i when the line can take part in an
// offer restricted to r.
func (s Scope) eligible(i int, r *Range) (decimal.Decimal, bool) {
	l := s.Basket.Lines[i]
	if !l.Product.IsDiscountable() || !r.Contains(l.Product) {
		return zero, false
	}
	return l.UnitPrice(s.InclTax)
}

func (s Scope) available(i int) int {
	return s.Ledger.Available(i, s.Offer)
}

func (s Scope) consume(i, n int) int {
	return s.Ledger.Consume(i, n, s.Offer)
}

func mergeClaims(a, b []Claim) []Claim {
	out := make([]Claim, 0, len(a)+len(b))
	idx := make(map[int]int, len(a)+len(b))
	for _, c := range append(append([]Claim{}, a...), b...) {
		if c.Quantity <= 0 {
			continue
		}
		if j, ok := idx[c.Line]; ok {
			out[j].Quantity += c.Quantity
			continue
		}
		idx[c.Line] = len(out)
		out = append(out, c)
	}
	slices.SortFunc(out, func(x, y Claim) int { return x.Line - y.Line })
	return out
}
