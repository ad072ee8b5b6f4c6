package offer

import (
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(id string) *Product {
	return &Product{ID: id, Structure: StructureStandalone}
}

func line(p *Product, qty int, price string) Line {
	return Line{
		Reference:        p.ID,
		Product:          p,
		Quantity:         qty,
		UnitPriceExclTax: Price(price),
		UnitPriceInclTax: Price(price),
	}
}

func basketOf(lines ...Line) Basket {
	return Basket{ID: "b1", Lines: lines}
}

func rangeOf(name string, ids ...string) *Range {
	return &Range{ID: name, Name: name, IncludedProducts: ids}
}

func newScope(b *Basket, o *ConditionalOffer) Scope {
	l := NewLedger()
	l.Reset(*b)
	return Scope{Basket: b, Ledger: l, Offer: o}
}

func exclusive(id string, c Condition, b Benefit) *ConditionalOffer {
	return &ConditionalOffer{ID: id, Name: id, Type: TypeSite, Status: StatusOpen, Condition: c, Benefit: b}
}

func combinable(id string, c Condition, b Benefit) *ConditionalOffer {
	o := exclusive(id, c, b)
	o.Combinable = true
	return o
}
