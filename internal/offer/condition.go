package offer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ConditionKind string

const (
	ConditionCount    ConditionKind = "count"
	ConditionValue    ConditionKind = "value"
	ConditionCoverage ConditionKind = "coverage"
	ConditionNone     ConditionKind = "none"
)

// Condition decides whether an offer applies to a basket and which units are
// claimed to satisfy it. The set of implementations is closed.
type Condition interface {
	Kind() ConditionKind
	Range() *Range
	// IsSatisfied looks only at units still available to the scope's offer.
	IsSatisfied(s Scope) bool
	// IsPartiallySatisfied reports some, but not enough, qualifying units.
	IsPartiallySatisfied(s Scope) bool
	UpsellMessage(s Scope) string
	// Consume claims units in basket order. It must only be called when
	// IsSatisfied holds.
	Consume(s Scope) []Claim
	Validate() error
	Describe() string

	isCondition()
}

// CountCondition needs Value units from the range.
type CountCondition struct {
	Rng   *Range
	Value int
}

func (c CountCondition) Kind() ConditionKind { return ConditionCount }
func (c CountCondition) Range() *Range { return c.Rng }
func (CountCondition) isCondition() {}

func (c CountCondition) matches(s Scope) int {
	n := 0
	for i := range s.Basket.Lines {
		if _, ok := s.eligible(i, c.Rng); ok {
			n += s.available(i)
		}
	}
	return n
}

func (c CountCondition) IsSatisfied(s Scope) bool {
	return c.matches(s) >= c.Value
}

func (c CountCondition) IsPartiallySatisfied(s Scope) bool {
	n := c.matches(s)
	return n > 0 && n < c.Value
}

func (c CountCondition) UpsellMessage(s Scope) string {
	delta := c.Value - c.matches(s)
	if delta <= 0 {
		return ""
	}
	return fmt.Sprintf("Buy %d more %s from %s", delta, plural(delta, "product"), c.Rng)
}

func (c CountCondition) Consume(s Scope) []Claim {
	var claims []Claim
	remaining := c.Value
	for i := range s.Basket.Lines {
		if remaining <= 0 {
			break
		}
		if _, ok := s.eligible(i, c.Rng); !ok {
			continue
		}
		if n := s.consume(i, remaining); n > 0 {
			claims = append(claims, Claim{Line: i, Quantity: n})
			remaining -= n
		}
	}
	return claims
}

func (c CountCondition) Validate() error {
	if c.Rng == nil {
		return &ConfigError{Component: "count condition", Field: "range", Reason: "required"}
	}
	if c.Value <= 0 {
		return &ConfigError{Component: "count condition", Field: "value", Reason: "must be positive"}
	}
	return c.Rng.Validate()
}

func (c CountCondition) Describe() string {
	return fmt.Sprintf("Basket includes %d %s from %s", c.Value, plural(c.Value, "item"), c.Rng)
}

// ValueCondition needs the range's units to be worth at least Value.
type ValueCondition struct {
	Rng   *Range
	Value decimal.Decimal
}

func (c ValueCondition) Kind() ConditionKind { return ConditionValue }
func (c ValueCondition) Range() *Range { return c.Rng }
func (ValueCondition) isCondition() {}

func (c ValueCondition) matches(s Scope) decimal.Decimal {
	total := zero
	for i := range s.Basket.Lines {
		if price, ok := s.eligible(i, c.Rng); ok {
			total = total.Add(price.Mul(decimal.NewFromInt(int64(s.available(i)))))
		}
	}
	return total
}

func (c ValueCondition) IsSatisfied(s Scope) bool {
	return c.matches(s).GreaterThanOrEqual(c.Value)
}

func (c ValueCondition) IsPartiallySatisfied(s Scope) bool {
	v := c.matches(s)
	return v.IsPositive() && v.LessThan(c.Value)
}

func (c ValueCondition) UpsellMessage(s Scope) string {
	delta := c.Value.Sub(c.matches(s))
	if !delta.IsPositive() {
		return ""
	}
	return fmt.Sprintf("Spend %s more from %s", delta.StringFixed(2), c.Rng)
}

// Consume claims whole units until the claimed value reaches Value. The last
// unit may push the claimed value past the threshold.
func (c ValueCondition) Consume(s Scope) []Claim {
	var claims []Claim
	remaining := c.Value
	for i := range s.Basket.Lines {
		if !remaining.IsPositive() {
			break
		}
		price, ok := s.eligible(i, c.Rng)
		if !ok {
			continue
		}
		need := remaining.Div(price).Ceil().IntPart()
		if n := s.consume(i, int(need)); n > 0 {
			claims = append(claims, Claim{Line: i, Quantity: n})
			remaining = remaining.Sub(price.Mul(decimal.NewFromInt(int64(n))))
		}
	}
	return claims
}

func (c ValueCondition) Validate() error {
	if c.Rng == nil {
		return &ConfigError{Component: "value condition", Field: "range", Reason: "required"}
	}
	if !c.Value.IsPositive() {
		return &ConfigError{Component: "value condition", Field: "value", Reason: "must be positive"}
	}
	return c.Rng.Validate()
}

func (c ValueCondition) Describe() string {
	return fmt.Sprintf("Spend %s on %s", c.Value.StringFixed(2), c.Rng)
}

// CoverageCondition needs Value distinct products from the range.
type CoverageCondition struct {
	Rng   *Range
	Value int
}

func (c CoverageCondition) Kind() ConditionKind { return ConditionCoverage }
func (c CoverageCondition) Range() *Range { return c.Rng }
func (CoverageCondition) isCondition() {}

// covered returns the first line holding each distinct qualifying product.
func (c CoverageCondition) covered(s Scope) []int {
	seen := make(map[string]bool)
	var lines []int
	for i, l := range s.Basket.Lines {
		if _, ok := s.eligible(i, c.Rng); !ok || s.available(i) < 1 || seen[l.Product.ID] {
			continue
		}
		seen[l.Product.ID] = true
		lines = append(lines, i)
	}
	return lines
}

func (c CoverageCondition) IsSatisfied(s Scope) bool {
	return len(c.covered(s)) >= c.Value
}

func (c CoverageCondition) IsPartiallySatisfied(s Scope) bool {
	n := len(c.covered(s))
	return n > 0 && n < c.Value
}

func (c CoverageCondition) UpsellMessage(s Scope) string {
	delta := c.Value - len(c.covered(s))
	if delta <= 0 {
		return ""
	}
	return fmt.Sprintf("Buy %d more %s from %s", delta, plural(delta, "product"), c.Rng)
}

func (c CoverageCondition) Consume(s Scope) []Claim {
	var claims []Claim
	for _, i := range c.covered(s) {
		if len(claims) >= c.Value {
			break
		}
		if s.consume(i, 1) == 1 {
			claims = append(claims, Claim{Line: i, Quantity: 1})
		}
	}
	return claims
}

func (c CoverageCondition) Validate() error {
	if c.Rng == nil {
		return &ConfigError{Component: "coverage condition", Field: "range", Reason: "required"}
	}
	if c.Value <= 0 {
		return &ConfigError{Component: "coverage condition", Field: "value", Reason: "must be positive"}
	}
	return c.Rng.Validate()
}

func (c CoverageCondition) Describe() string {
	return fmt.Sprintf("Basket includes %d distinct %s from %s", c.Value, plural(c.Value, "product"), c.Rng)
}

// NoneCondition is always satisfied and claims nothing.
type NoneCondition struct{}

func (NoneCondition) Kind() ConditionKind { return ConditionNone }
func (NoneCondition) Range() *Range { return nil }
func (NoneCondition) IsSatisfied(Scope) bool { return true }
func (NoneCondition) IsPartiallySatisfied(Scope) bool { return false }
func (NoneCondition) UpsellMessage(Scope) string { return "" }
func (NoneCondition) Consume(Scope) []Claim { return nil }
func (NoneCondition) Validate() error { return nil }
func (NoneCondition) Describe() string { return "No condition" }
func (NoneCondition) isCondition() {}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
