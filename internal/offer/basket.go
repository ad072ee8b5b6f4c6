package offer

import "github.com/shopspring/decimal"

type Structure string

const (
	StructureStandalone Structure = "standalone"
	StructureParent     Structure = "parent"
	StructureChild      Structure = "child"
)

// Product is the slice of catalogue data the engine needs. A child product
// points at its parent and inherits the parent's categories and class.
type Product struct {
	ID              string
	Structure       Structure
	Parent          *Product
	ClassID         string
	Categories      []Category
	Attributes      map[string]any
	NotDiscountable bool
}

func (p *Product) IsChild() bool {
	return p != nil && p.Structure == StructureChild && p.Parent != nil
}

// EffectiveClass returns the product class, falling back to the parent's.
func (p *Product) EffectiveClass() string {
	if p.ClassID == "" && p.IsChild() {
		return p.Parent.ClassID
	}
	return p.ClassID
}

// EffectiveCategories returns the product's categories followed by its parent's.
func (p *Product) EffectiveCategories() []Category {
	if !p.IsChild() {
		return p.Categories
	}
	out := make([]Category, 0, len(p.Categories)+len(p.Parent.Categories))
	out = append(out, p.Categories...)
	return append(out, p.Parent.Categories...)
}

func (p *Product) IsDiscountable() bool {
	if p == nil || p.NotDiscountable {
		return false
	}
	if p.IsChild() && p.Parent.NotDiscountable {
		return false
	}
	return true
}

type Line struct {
	Reference        string
	Product          *Product
	Quantity         int
	UnitPriceExclTax decimal.NullDecimal
	UnitPriceInclTax decimal.NullDecimal
}

// UnitPrice returns the price for the tax mode. ok is false when the line is
// unpriced or free; such lines never take part in offers.
func (l Line) UnitPrice(inclTax bool) (decimal.Decimal, bool) {
	p := l.UnitPriceExclTax
	if inclTax {
		p = l.UnitPriceInclTax
	}
	if !p.Valid || !p.Decimal.IsPositive() {
		return zero, false
	}
	return p.Decimal, true
}

// Basket is the snapshot an evaluation runs against. Line order is basket order.
type Basket struct {
	ID      string
	OwnerID string
	Lines   []Line
}

func (b Basket) NumItems() int {
	n := 0
	for _, l := range b.Lines {
		n += l.Quantity
	}
	return n
}

// Total is the undiscounted value of all priced lines.
func (b Basket) Total(inclTax bool) decimal.Decimal {
	total := zero
	for _, l := range b.Lines {
		if p, ok := l.UnitPrice(inclTax); ok {
			total = total.Add(p.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return total
}

// Price is a convenience for building priced lines.
func Price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
