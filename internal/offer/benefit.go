package offer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type BenefitKind string

const (
	BenefitPercentage         BenefitKind = "percentage"
	BenefitAbsolute           BenefitKind = "absolute"
	BenefitFixedUnit          BenefitKind = "fixed_unit"
	BenefitFixedPrice         BenefitKind = "fixed_price"
	BenefitMultibuy           BenefitKind = "multibuy"
	BenefitShippingAbsolute   BenefitKind = "shipping_absolute"
	BenefitShippingPercentage BenefitKind = "shipping_percentage"
	BenefitShippingFixedPrice BenefitKind = "shipping_fixed_price"
	BenefitPostOrder          BenefitKind = "post_order"
)

// Benefit computes the discount of one offer application. The set of
// implementations is closed.
type Benefit interface {
	Kind() BenefitKind
	// Range is nil when the benefit only touches the units its condition claimed.
	Range() *Range
	Validate() error
	Describe() string

	apply(s Scope, claims []Claim) ApplicationResult
}

// ShippingBenefit is implemented by benefits that discount the shipping charge
// instead of basket lines.
type ShippingBenefit interface {
	Benefit
	ShippingDiscount(charge decimal.Decimal) decimal.Decimal
}

// PercentageBenefit takes Value percent off up to MaxAffectedItems units.
type PercentageBenefit struct {
	Rng              *Range
	Value            decimal.Decimal
	MaxAffectedItems int
}

func (b PercentageBenefit) Kind() BenefitKind { return BenefitPercentage }
func (b PercentageBenefit) Range() *Range { return b.Rng }

func (b PercentageBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	units := takeUnits(benefitPool(s, b.Rng, claims), b.MaxAffectedItems)
	pct := decimal.Min(b.Value, hundred)
	discount := unitsTotal(units).Mul(pct).Div(hundred)
	return basketResult(s, claims, units, discount)
}

func (b PercentageBenefit) Validate() error {
	if b.Rng == nil {
		return &ConfigError{Component: "percentage benefit", Field: "range", Reason: "required"}
	}
	if !b.Value.IsPositive() || b.Value.GreaterThan(hundred) {
		return &ConfigError{Component: "percentage benefit", Field: "value", Reason: "must be in (0, 100]"}
	}
	return validateMaxAffected("percentage benefit", b.MaxAffectedItems, b.Rng)
}

func (b PercentageBenefit) Describe() string {
	return fmt.Sprintf("%s%% discount on %s", b.Value.String(), b.Rng)
}

// AbsoluteBenefit takes Value off the affected units as a whole.
type AbsoluteBenefit struct {
	Rng              *Range
	Value            decimal.Decimal
	MaxAffectedItems int
}

func (b AbsoluteBenefit) Kind() BenefitKind { return BenefitAbsolute }
func (b AbsoluteBenefit) Range() *Range { return b.Rng }

func (b AbsoluteBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	units := takeUnits(benefitPool(s, b.Rng, claims), b.MaxAffectedItems)
	return basketResult(s, claims, units, decimal.Min(b.Value, unitsTotal(units)))
}

func (b AbsoluteBenefit) Validate() error {
	if b.Rng == nil {
		return &ConfigError{Component: "absolute benefit", Field: "range", Reason: "required"}
	}
	if !b.Value.IsPositive() {
		return &ConfigError{Component: "absolute benefit", Field: "value", Reason: "must be positive"}
	}
	return validateMaxAffected("absolute benefit", b.MaxAffectedItems, b.Rng)
}

func (b AbsoluteBenefit) Describe() string {
	return fmt.Sprintf("%s discount on %s", b.Value.StringFixed(2), b.Rng)
}

// FixedUnitBenefit takes Value off each affected unit.
type FixedUnitBenefit struct {
	Rng              *Range
	Value            decimal.Decimal
	MaxAffectedItems int
}

func (b FixedUnitBenefit) Kind() BenefitKind { return BenefitFixedUnit }
func (b FixedUnitBenefit) Range() *Range { return b.Rng }

func (b FixedUnitBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	units := takeUnits(benefitPool(s, b.Rng, claims), b.MaxAffectedItems)
	discount := zero
	for _, u := range units {
		discount = discount.Add(decimal.Min(u.price, b.Value).Mul(decimal.NewFromInt(int64(u.quantity))))
	}
	return basketResult(s, claims, units, discount)
}

func (b FixedUnitBenefit) Validate() error {
	if b.Rng == nil {
		return &ConfigError{Component: "fixed unit benefit", Field: "range", Reason: "required"}
	}
	if !b.Value.IsPositive() {
		return &ConfigError{Component: "fixed unit benefit", Field: "value", Reason: "must be positive"}
	}
	return validateMaxAffected("fixed unit benefit", b.MaxAffectedItems, b.Rng)
}

func (b FixedUnitBenefit) Describe() string {
	return fmt.Sprintf("%s off each item from %s", b.Value.StringFixed(2), b.Rng)
}

// FixedPriceBenefit sells the units the condition claimed for Value in total.
type FixedPriceBenefit struct {
	Value decimal.Decimal
}

func (b FixedPriceBenefit) Kind() BenefitKind { return BenefitFixedPrice }
func (b FixedPriceBenefit) Range() *Range { return nil }

func (b FixedPriceBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	units := takeUnits(benefitPool(s, nil, claims), 0)
	discount := decimal.Max(unitsTotal(units).Sub(b.Value), zero)
	return basketResult(s, claims, units, discount)
}

func (b FixedPriceBenefit) Validate() error {
	if b.Value.IsNegative() {
		return &ConfigError{Component: "fixed price benefit", Field: "value", Reason: "must not be negative"}
	}
	return nil
}

func (b FixedPriceBenefit) Describe() string {
	return fmt.Sprintf("The products that meet the condition are sold for %s", b.Value.StringFixed(2))
}

// MultibuyBenefit gives away the cheapest affected unit.
type MultibuyBenefit struct {
	Rng *Range
}

func (b MultibuyBenefit) Kind() BenefitKind { return BenefitMultibuy }
func (b MultibuyBenefit) Range() *Range { return b.Rng }

func (b MultibuyBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	var cheapest *unitTake
	for _, p := range benefitPool(s, b.Rng, claims) {
		if cheapest == nil || p.price.LessThan(cheapest.price) {
			u := unitTake{line: p.line, price: p.price, quantity: 1}
			if p.claimed == 0 {
				u.extra = 1
			}
			cheapest = &u
		}
	}
	if cheapest == nil {
		return basketResult(s, claims, nil, zero)
	}
	return basketResult(s, claims, []unitTake{*cheapest}, cheapest.price)
}

func (b MultibuyBenefit) Validate() error {
	if b.Rng == nil {
		return &ConfigError{Component: "multibuy benefit", Field: "range", Reason: "required"}
	}
	return b.Rng.Validate()
}

func (b MultibuyBenefit) Describe() string {
	return fmt.Sprintf("Cheapest product from %s is free", b.Rng)
}

// ShippingAbsoluteBenefit takes Value off the shipping charge.
type ShippingAbsoluteBenefit struct {
	Value decimal.Decimal
}

func (b ShippingAbsoluteBenefit) Kind() BenefitKind { return BenefitShippingAbsolute }
func (b ShippingAbsoluteBenefit) Range() *Range { return nil }
func (b ShippingAbsoluteBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	return shippingResult(s, claims, b)
}

func (b ShippingAbsoluteBenefit) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	return clamp(roundMoney(decimal.Min(charge, b.Value)), zero, decimal.Max(charge, zero))
}

func (b ShippingAbsoluteBenefit) Validate() error {
	if !b.Value.IsPositive() {
		return &ConfigError{Component: "shipping absolute benefit", Field: "value", Reason: "must be positive"}
	}
	return nil
}

func (b ShippingAbsoluteBenefit) Describe() string {
	return fmt.Sprintf("%s off shipping", b.Value.StringFixed(2))
}

// ShippingPercentageBenefit takes Value percent off the shipping charge.
type ShippingPercentageBenefit struct {
	Value decimal.Decimal
}

func (b ShippingPercentageBenefit) Kind() BenefitKind { return BenefitShippingPercentage }
func (b ShippingPercentageBenefit) Range() *Range { return nil }
func (b ShippingPercentageBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	return shippingResult(s, claims, b)
}

func (b ShippingPercentageBenefit) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	d := charge.Mul(decimal.Min(b.Value, hundred)).Div(hundred)
	return clamp(roundMoney(d), zero, decimal.Max(charge, zero))
}

func (b ShippingPercentageBenefit) Validate() error {
	if !b.Value.IsPositive() || b.Value.GreaterThan(hundred) {
		return &ConfigError{Component: "shipping percentage benefit", Field: "value", Reason: "must be in (0, 100]"}
	}
	return nil
}

func (b ShippingPercentageBenefit) Describe() string {
	return fmt.Sprintf("%s%% off shipping", b.Value.String())
}

// ShippingFixedPriceBenefit caps the shipping charge at Value.
type ShippingFixedPriceBenefit struct {
	Value decimal.Decimal
}

func (b ShippingFixedPriceBenefit) Kind() BenefitKind { return BenefitShippingFixedPrice }
func (b ShippingFixedPriceBenefit) Range() *Range { return nil }
func (b ShippingFixedPriceBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	return shippingResult(s, claims, b)
}

func (b ShippingFixedPriceBenefit) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	return roundMoney(decimal.Max(charge.Sub(b.Value), zero))
}

func (b ShippingFixedPriceBenefit) Validate() error {
	if b.Value.IsNegative() {
		return &ConfigError{Component: "shipping fixed price benefit", Field: "value", Reason: "must not be negative"}
	}
	return nil
}

func (b ShippingFixedPriceBenefit) Describe() string {
	return fmt.Sprintf("Shipping for %s", b.Value.StringFixed(2))
}

// PostOrderBenefit flags an action to run once the order is paid. The engine
// never performs it.
type PostOrderBenefit struct {
	Description string
}

func (b PostOrderBenefit) Kind() BenefitKind { return BenefitPostOrder }
func (b PostOrderBenefit) Range() *Range { return nil }

func (b PostOrderBenefit) apply(s Scope, claims []Claim) ApplicationResult {
	return ApplicationResult{
		Effect:      EffectPostOrder,
		Applied:     true,
		Description: b.Description,
		Consumed:    mergeClaims(claims, nil),
	}
}

func (b PostOrderBenefit) Validate() error {
	if b.Description == "" {
		return &ConfigError{Component: "post order benefit", Field: "description", Reason: "required"}
	}
	return nil
}

func (b PostOrderBenefit) Describe() string { return b.Description }

func validateMaxAffected(component string, n int, r *Range) error {
	if n < 0 {
		return &ConfigError{Component: component, Field: "max_affected_items", Reason: "must not be negative"}
	}
	return r.Validate()
}

func shippingResult(s Scope, claims []Claim, b ShippingBenefit) ApplicationResult {
	return ApplicationResult{
		Effect:      EffectShipping,
		Applied:     true,
		Description: b.Describe(),
		Consumed:    mergeClaims(claims, nil),
		shipping:    b,
	}
}
