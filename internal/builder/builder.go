// Package builder turns stored definitions into engine objects. Every
// configuration problem is reported here, before a basket is evaluated.
package builder

import (
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
	"github.com/Cheertaboi/offer-engine/internal/rules"
)

// Builder resolves categories and ranges shared by many offers.
type Builder struct {
	tree   *offer.CategoryTree
	ranges map[string]*offer.Range
}

// New builds the category tree. Categories without a path are placed under
// their parent, which must come earlier in the list.
func New(categories []models.Category) (*Builder, error) {
	b := &Builder{
		tree:   offer.NewCategoryTree(),
		ranges: make(map[string]*offer.Range),
	}
	for _, c := range categories {
		if c.Path != "" {
			if err := b.tree.Insert(offer.Category{ID: c.ID, Name: c.Name, Path: c.Path}); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := b.tree.Add(c.ID, c.Name, c.ParentID); err != nil {
			return nil, errors.Wrapf(err, "category %s", c.ID)
		}
	}
	return b, nil
}

func (b *Builder) Tree() *offer.CategoryTree {
	return b.tree
}

// Category resolves a category reference against the tree.
func (b *Builder) Category(c models.Category) (offer.Category, error) {
	if c.Path != "" {
		if !offer.ValidPath(c.Path) {
			return offer.Category{}, &offer.ConfigError{Component: "category " + c.ID, Field: "path", Reason: "malformed"}
		}
		return offer.Category{ID: c.ID, Name: c.Name, Path: c.Path}, nil
	}
	cat, ok := b.tree.Get(c.ID)
	if !ok {
		return offer.Category{}, &offer.ConfigError{Component: "category", Field: "id", Reason: "unknown category " + c.ID}
	}
	return cat, nil
}

func (b *Builder) categories(refs []models.Category) ([]offer.Category, error) {
	out := make([]offer.Category, 0, len(refs))
	for _, ref := range refs {
		c, err := b.Category(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Range compiles a range definition and remembers it for later offers.
func (b *Builder) Range(def models.Range) (*offer.Range, error) {
	if def.ID == "" {
		return nil, &offer.ConfigError{Component: "range", Field: "id", Reason: "required"}
	}
	included, err := b.categories(def.IncludedCategories)
	if err != nil {
		return nil, errors.Wrapf(err, "range %s", def.ID)
	}
	excluded, err := b.categories(def.ExcludedCategories)
	if err != nil {
		return nil, errors.Wrapf(err, "range %s", def.ID)
	}
	r := &offer.Range{
		ID:                  def.ID,
		Name:                def.Name,
		IncludesAllProducts: def.IncludesAllProducts,
		IncludedProducts:    def.IncludedProducts,
		ExcludedProducts:    def.ExcludedProducts,
		IncludedCategories:  included,
		ExcludedCategories:  excluded,
		Classes:             def.Classes,
	}
	raw := def.Predicate
	if len(raw) == 0 && len(def.PredicateYAML) > 0 {
		if raw, err = json.Marshal(def.PredicateYAML); err != nil {
			return nil, errors.Wrapf(err, "range %s: encode predicate", def.ID)
		}
	}
	if len(raw) > 0 {
		pred, err := rules.Compile(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "range %s", def.ID)
		}
		r.Predicate = pred
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	b.ranges[r.ID] = r
	return r, nil
}

func (b *Builder) Ranges(defs []models.Range) error {
	for _, def := range defs {
		if _, err := b.Range(def); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) lookupRange(id string) (*offer.Range, error) {
	if id == "" {
		return nil, nil
	}
	r, ok := b.ranges[id]
	if !ok {
		return nil, &offer.ConfigError{Component: "range", Field: "id", Reason: "unknown range " + id}
	}
	return r, nil
}

// Offer compiles and validates one offer definition.
func (b *Builder) Offer(def models.Offer) (*offer.ConditionalOffer, error) {
	cond, err := b.condition(def.Condition)
	if err != nil {
		return nil, errors.Wrapf(err, "offer %s", def.ID)
	}
	ben, err := b.benefit(def.Benefit)
	if err != nil {
		return nil, errors.Wrapf(err, "offer %s", def.ID)
	}
	o := &offer.ConditionalOffer{
		ID:                    def.ID,
		Name:                  def.Name,
		Description:           def.Description,
		Type:                  offer.Type(def.OfferType),
		Condition:             cond,
		Benefit:               ben,
		Priority:              def.Priority,
		Combinable:            def.Combinable,
		Status:                offer.Status(def.Status),
		StartAt:               timeOrZero(def.StartAt),
		EndAt:                 timeOrZero(def.EndAt),
		MaxGlobalApplications: def.MaxGlobalApplications,
		MaxUserApplications:   def.MaxUserApplications,
		MaxBasketApplications: def.MaxBasketApplications,
		TotalDiscount:         def.TotalDiscount,
		NumApplications:       def.NumApplications,
		NumOrders:             def.NumOrders,
		CreatedAt:             def.CreatedAt,
	}
	if o.Type == "" {
		o.Type = offer.TypeSite
	}
	if o.Status == "" {
		o.Status = offer.StatusOpen
	}
	switch o.Type {
	case offer.TypeSite, offer.TypeVoucher, offer.TypeUser, offer.TypeSession:
	default:
		return nil, errors.Wrapf(offer.ErrUnknownKind, "offer %s: type %q", def.ID, def.OfferType)
	}
	switch o.Status {
	case offer.StatusOpen, offer.StatusSuspended, offer.StatusConsumed:
	default:
		return nil, errors.Wrapf(offer.ErrUnknownKind, "offer %s: status %q", def.ID, def.Status)
	}
	if def.MaxDiscount != nil {
		o.MaxDiscount = decimal.NewNullDecimal(*def.MaxDiscount)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Offers compiles a list of definitions, keeping their order as the creation
// sequence.
func (b *Builder) Offers(defs []models.Offer) ([]*offer.ConditionalOffer, error) {
	out := make([]*offer.ConditionalOffer, 0, len(defs))
	for i, def := range defs {
		o, err := b.Offer(def)
		if err != nil {
			return nil, err
		}
		o.Sequence = int64(i)
		out = append(out, o)
	}
	return out, nil
}

func (b *Builder) condition(def models.ConditionDef) (offer.Condition, error) {
	r, err := b.lookupRange(def.RangeID)
	if err != nil {
		return nil, err
	}
	switch offer.ConditionKind(def.Type) {
	case offer.ConditionCount:
		n, err := wholeNumber("count condition", def.Value)
		return offer.CountCondition{Rng: r, Value: n}, err
	case offer.ConditionCoverage:
		n, err := wholeNumber("coverage condition", def.Value)
		return offer.CoverageCondition{Rng: r, Value: n}, err
	case offer.ConditionValue:
		return offer.ValueCondition{Rng: r, Value: def.Value}, nil
	case offer.ConditionNone, "":
		return offer.NoneCondition{}, nil
	}
	return nil, errors.Wrapf(offer.ErrUnknownKind, "condition %q", def.Type)
}

func (b *Builder) benefit(def models.BenefitDef) (offer.Benefit, error) {
	r, err := b.lookupRange(def.RangeID)
	if err != nil {
		return nil, err
	}
	value := decimal.Zero
	if def.Value != nil {
		value = *def.Value
	}
	kind := offer.BenefitKind(def.Type)
	switch kind {
	case offer.BenefitMultibuy:
		if def.Value != nil || def.MaxAffectedItems != 0 {
			return nil, &offer.ConfigError{Component: "multibuy benefit", Reason: "takes no value or max affected items"}
		}
		return offer.MultibuyBenefit{Rng: r}, nil
	case offer.BenefitFixedPrice, offer.BenefitShippingAbsolute, offer.BenefitShippingPercentage,
		offer.BenefitShippingFixedPrice, offer.BenefitPostOrder:
		if r != nil {
			return nil, &offer.ConfigError{Component: string(kind) + " benefit", Field: "range", Reason: "not allowed"}
		}
		if def.MaxAffectedItems != 0 {
			return nil, &offer.ConfigError{Component: string(kind) + " benefit", Field: "max_affected_items", Reason: "not allowed"}
		}
	}
	if kind != offer.BenefitPostOrder && def.Value == nil && knownBenefit(kind) {
		return nil, &offer.ConfigError{Component: string(kind) + " benefit", Field: "value", Reason: "required"}
	}
	switch kind {
	case offer.BenefitPercentage:
		return offer.PercentageBenefit{Rng: r, Value: value, MaxAffectedItems: def.MaxAffectedItems}, nil
	case offer.BenefitAbsolute:
		return offer.AbsoluteBenefit{Rng: r, Value: value, MaxAffectedItems: def.MaxAffectedItems}, nil
	case offer.BenefitFixedUnit:
		return offer.FixedUnitBenefit{Rng: r, Value: value, MaxAffectedItems: def.MaxAffectedItems}, nil
	case offer.BenefitFixedPrice:
		return offer.FixedPriceBenefit{Value: value}, nil
	case offer.BenefitShippingAbsolute:
		return offer.ShippingAbsoluteBenefit{Value: value}, nil
	case offer.BenefitShippingPercentage:
		return offer.ShippingPercentageBenefit{Value: value}, nil
	case offer.BenefitShippingFixedPrice:
		return offer.ShippingFixedPriceBenefit{Value: value}, nil
	case offer.BenefitPostOrder:
		return offer.PostOrderBenefit{Description: def.Description}, nil
	}
	return nil, errors.Wrapf(offer.ErrUnknownKind, "benefit %q", def.Type)
}

func knownBenefit(kind offer.BenefitKind) bool {
	switch kind {
	case offer.BenefitPercentage, offer.BenefitAbsolute, offer.BenefitFixedUnit, offer.BenefitFixedPrice,
		offer.BenefitMultibuy, offer.BenefitShippingAbsolute, offer.BenefitShippingPercentage,
		offer.BenefitShippingFixedPrice, offer.BenefitPostOrder:
		return true
	}
	return false
}

// Voucher compiles a voucher. Its offers are bound separately.
func Voucher(def models.Voucher) (*offer.Voucher, error) {
	v := &offer.Voucher{
		ID:                 def.ID,
		Code:               offer.NormalizeCode(def.Code),
		Name:               def.Name,
		Usage:              offer.VoucherUsage(def.Usage),
		StartAt:            timeOrZero(def.StartAt),
		EndAt:              timeOrZero(def.EndAt),
		OfferIDs:           def.OfferIDs,
		NumBasketAdditions: def.NumBasketAdditions,
		NumOrders:          def.NumOrders,
		TotalDiscount:      def.TotalDiscount,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Products links parents and children and resolves categories.
func (b *Builder) Products(defs []models.Product) (map[string]*offer.Product, error) {
	out := make(map[string]*offer.Product, len(defs))
	for _, def := range defs {
		cats, err := b.categories(def.Categories)
		if err != nil {
			return nil, errors.Wrapf(err, "product %s", def.ID)
		}
		structure := offer.Structure(def.Structure)
		if structure == "" {
			structure = offer.StructureStandalone
			if def.ParentID != "" {
				structure = offer.StructureChild
			}
		}
		out[def.ID] = &offer.Product{
			ID:              def.ID,
			Structure:       structure,
			ClassID:         def.ClassID,
			Categories:      cats,
			Attributes:      def.Attributes,
			NotDiscountable: def.NotDiscountable,
		}
	}
	for _, def := range defs {
		if def.ParentID == "" {
			continue
		}
		parent, ok := out[def.ParentID]
		if !ok {
			return nil, &offer.ConfigError{Component: "product " + def.ID, Field: "parent", Reason: "unknown parent " + def.ParentID}
		}
		out[def.ID].Parent = parent
	}
	return out, nil
}

// ErrUnknownProduct is returned when a basket line names a product that was
// not loaded.
var ErrUnknownProduct = errors.New("unknown product")

// ErrInvalidQuantity is returned for a basket line without a positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Basket builds the engine snapshot of a basket request.
func Basket(def models.Basket, products map[string]*offer.Product) (offer.Basket, error) {
	b := offer.Basket{ID: def.ID, OwnerID: def.UserID}
	for i, l := range def.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			return offer.Basket{}, errors.Wrapf(ErrUnknownProduct, "line %d: %s", i, l.ProductID)
		}
		if l.Quantity <= 0 {
			return offer.Basket{}, errors.Wrapf(ErrInvalidQuantity, "line %d: %d", i, l.Quantity)
		}
		ref := l.Reference
		if ref == "" {
			ref = l.ProductID
		}
		b.Lines = append(b.Lines, offer.Line{
			Reference:        ref,
			Product:          p,
			Quantity:         l.Quantity,
			UnitPriceExclTax: nullable(l.UnitPriceExclTax),
			UnitPriceInclTax: nullable(l.UnitPriceInclTax),
		})
	}
	return b, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func wholeNumber(component string, v decimal.Decimal) (int, error) {
	if !v.IsInteger() {
		return 0, &offer.ConfigError{Component: component, Field: "value", Reason: "must be a whole number"}
	}
	return int(v.IntPart()), nil
}
