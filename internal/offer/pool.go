package offer

import "github.com/shopspring/decimal"

// poolLine is the part of one basket line a benefit may discount: units the
// condition claimed for this application, then units still free for the offer.
type poolLine struct {
	line    int
	price   decimal.Decimal
	claimed int
	extra   int
}

type unitTake struct {
	line     int
	price    decimal.Decimal
	quantity int
	// extra is how many of quantity were not claimed by the condition and must
	// be consumed by the benefit.
	extra int
}

// benefitPool lists the units a benefit restricted to r may draw from, in
// basket order. A nil r limits the pool to the condition's claims.
func benefitPool(s Scope, r *Range, claims []Claim) []poolLine {
	claimed := make(map[int]int, len(claims))
	for _, c := range claims {
		claimed[c.Line] += c.Quantity
	}
	var pool []poolLine
	for i, l := range s.Basket.Lines {
		var p poolLine
		if r == nil {
			price, ok := l.UnitPrice(s.InclTax)
			if !ok || claimed[i] == 0 || !l.Product.IsDiscountable() {
				continue
			}
			p = poolLine{line: i, price: price, claimed: claimed[i]}
		} else {
			price, ok := s.eligible(i, r)
			if !ok {
				continue
			}
			p = poolLine{line: i, price: price, claimed: claimed[i], extra: s.available(i)}
		}
		if p.claimed+p.extra > 0 {
			pool = append(pool, p)
		}
	}
	return pool
}

// takeUnits walks the pool in order and takes at most limit units, claimed
// units first on each line. A limit of zero means no limit.
func takeUnits(pool []poolLine, limit int) []unitTake {
	var units []unitTake
	left := limit
	for _, p := range pool {
		n := p.claimed + p.extra
		if limit > 0 {
			if left <= 0 {
				break
			}
			n = min(n, left)
			left -= n
		}
		units = append(units, unitTake{
			line:     p.line,
			price:    p.price,
			quantity: n,
			extra:    max(0, n-p.claimed),
		})
	}
	return units
}

func unitsTotal(units []unitTake) decimal.Decimal {
	total := zero
	for _, u := range units {
		total = total.Add(u.price.Mul(decimal.NewFromInt(int64(u.quantity))))
	}
	return total
}

// basketResult finalizes a line discount: rounds once, clamps into
// [0, value of the affected units], consumes the extra units and spreads the
// amount over the affected lines.
func basketResult(s Scope, claims []Claim, units []unitTake, discount decimal.Decimal) ApplicationResult {
	total := unitsTotal(units)
	discount = clamp(roundMoney(discount), zero, total)

	var extra []Claim
	for i, u := range units {
		if u.extra == 0 {
			continue
		}
		got := s.consume(u.line, u.extra)
		if got < u.extra {
			units[i].quantity -= u.extra - got
		}
		extra = append(extra, Claim{Line: u.line, Quantity: got})
	}
	return ApplicationResult{
		Effect:   EffectBasket,
		Applied:  true,
		Discount: discount,
		Lines:    allocate(discount, units),
		Consumed: mergeClaims(claims, extra),
	}
}

// allocate splits discount over the affected lines weighted by their value.
// Every line but the last is rounded down; the last takes the remainder so the
// parts always sum to discount.
func allocate(discount decimal.Decimal, units []unitTake) []LineDiscount {
	var parts []unitTake
	for _, u := range units {
		if u.quantity > 0 {
			parts = append(parts, u)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	total := unitsTotal(parts)
	out := make([]LineDiscount, 0, len(parts))
	allocated := zero
	for i, u := range parts {
		amount := discount.Sub(allocated)
		if i < len(parts)-1 && total.IsPositive() {
			weight := u.price.Mul(decimal.NewFromInt(int64(u.quantity)))
			amount = decimal.Min(discount.Mul(weight).Div(total).RoundDown(2), amount)
		}
		allocated = allocated.Add(amount)
		out = append(out, LineDiscount{Line: u.line, Quantity: u.quantity, Amount: amount})
	}
	return out
}
