package offer

import "slices"

// ProductPredicate is a custom inclusion rule attached to a Range.
type ProductPredicate interface {
	Contains(p *Product) bool
}

// Range is a named set of products an offer's condition or benefit applies to.
// Exclusion always wins over any inclusion mechanism.
type Range struct {
	ID                  string
	Name                string
	IncludesAllProducts bool
	IncludedProducts    []string
	ExcludedProducts    []string
	IncludedCategories  []Category
	// ExcludedCategories only narrows ranges that include all products.
	ExcludedCategories []Category
	Classes            []string
	Predicate          ProductPredicate
}

// Contains reports whether p belongs to the range. A nil range or product
// matches nothing.
func (r *Range) Contains(p *Product) bool {
	if r == nil || p == nil {
		return false
	}
	if r.excludes(p) {
		return false
	}
	if r.IncludesAllProducts {
		return !inAnyCategory(p.EffectiveCategories(), r.ExcludedCategories)
	}
	if r.hasProduct(r.IncludedProducts, p) {
		return true
	}
	if inAnyCategory(p.EffectiveCategories(), r.IncludedCategories) {
		return true
	}
	if class := p.EffectiveClass(); class != "" && slices.Contains(r.Classes, class) {
		return true
	}
	return r.Predicate != nil && r.Predicate.Contains(p)
}

func (r *Range) excludes(p *Product) bool {
	return r.hasProduct(r.ExcludedProducts, p)
}

func (r *Range) hasProduct(ids []string, p *Product) bool {
	if slices.Contains(ids, p.ID) {
		return true
	}
	return p.IsChild() && slices.Contains(ids, p.Parent.ID)
}

func (r *Range) Validate() error {
	if r == nil {
		return nil
	}
	for _, c := range slices.Concat(r.IncludedCategories, r.ExcludedCategories) {
		if !ValidPath(c.Path) {
			return &ConfigError{Component: "range " + r.Name, Field: "categories", Reason: "malformed category path for " + c.ID}
		}
	}
	return nil
}

func (r *Range) String() string {
	if r == nil {
		return ""
	}
	return r.Name
}

func inAnyCategory(cats, targets []Category) bool {
	for _, c := range cats {
		for _, t := range targets {
			if c.IsDescendantOf(t) {
				return true
			}
		}
	}
	return false
}
