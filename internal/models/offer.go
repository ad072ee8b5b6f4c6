package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Offer is the stored definition of a conditional offer.
type Offer struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	OfferType   string     `json:"offer_type" yaml:"offer_type"`
	Priority    int        `json:"priority" yaml:"priority"`
	Combinable  bool       `json:"combinable" yaml:"combinable"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty" yaml:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty" yaml:"end_at,omitempty"`

	MaxGlobalApplications int              `json:"max_global_applications,omitempty" yaml:"max_global_applications,omitempty"`
	MaxUserApplications   int              `json:"max_user_applications,omitempty" yaml:"max_user_applications,omitempty"`
	MaxBasketApplications int              `json:"max_basket_applications,omitempty" yaml:"max_basket_applications,omitempty"`
	MaxDiscount           *decimal.Decimal `json:"max_discount,omitempty" yaml:"max_discount,omitempty"`

	TotalDiscount   decimal.Decimal `json:"total_discount" yaml:"total_discount,omitempty"`
	NumApplications int             `json:"num_applications" yaml:"num_applications,omitempty"`
	NumOrders       int             `json:"num_orders" yaml:"num_orders,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at,omitempty"`

	Condition ConditionDef `json:"condition" yaml:"condition"`
	Benefit   BenefitDef   `json:"benefit" yaml:"benefit"`
}

type ConditionDef struct {
	Type    string          `json:"type" yaml:"type"`
	Value   decimal.Decimal `json:"value" yaml:"value,omitempty"`
	RangeID string          `json:"range_id,omitempty" yaml:"range_id,omitempty"`
}

type BenefitDef struct {
	Type             string           `json:"type" yaml:"type"`
	Value            *decimal.Decimal `json:"value,omitempty" yaml:"value,omitempty"`
	RangeID          string           `json:"range_id,omitempty" yaml:"range_id,omitempty"`
	MaxAffectedItems int              `json:"max_affected_items,omitempty" yaml:"max_affected_items,omitempty"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
}

// Range is the stored definition of a product range. Categories are given by
// ID; a Path, when present, is trusted as the category's materialized path.
type Range struct {
	ID                  string          `json:"id" yaml:"id"`
	Name                string          `json:"name" yaml:"name"`
	IncludesAllProducts bool            `json:"includes_all_products" yaml:"includes_all_products"`
	IncludedProducts    []string        `json:"included_products,omitempty" yaml:"included_products,omitempty"`
	ExcludedProducts    []string        `json:"excluded_products,omitempty" yaml:"excluded_products,omitempty"`
	IncludedCategories  []Category      `json:"included_categories,omitempty" yaml:"included_categories,omitempty"`
	ExcludedCategories  []Category      `json:"excluded_categories,omitempty" yaml:"excluded_categories,omitempty"`
	Classes             []string        `json:"classes,omitempty" yaml:"classes,omitempty"`
	Predicate           json.RawMessage `json:"predicate,omitempty" yaml:"-"`
	// PredicateYAML carries the predicate in YAML catalogues, where it is
	// written as a nested mapping rather than raw JSON.
	PredicateYAML map[string]any `json:"-" yaml:"predicate,omitempty"`
}

type Category struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
}

type Voucher struct {
	ID       string     `json:"id" yaml:"id"`
	Code     string     `json:"code" yaml:"code"`
	Name     string     `json:"name" yaml:"name"`
	Usage    string     `json:"usage" yaml:"usage"`
	StartAt  *time.Time `json:"start_at,omitempty" yaml:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty" yaml:"end_at,omitempty"`
	OfferIDs []string   `json:"offer_ids" yaml:"offers"`

	NumBasketAdditions int             `json:"num_basket_additions" yaml:"-"`
	NumOrders          int             `json:"num_orders" yaml:"-"`
	TotalDiscount      decimal.Decimal `json:"total_discount" yaml:"-"`
}

// VoucherHistory counts past redemptions of a voucher.
type VoucherHistory struct {
	Total int `json:"total"`
	User  int `json:"user"`
}

// OfferSet is everything needed to evaluate offers, as cached between requests.
type OfferSet struct {
	Offers     []Offer    `json:"offers"`
	Ranges     []Range    `json:"ranges"`
	Categories []Category `json:"categories"`
	LoadedAt   time.Time  `json:"loaded_at"`
}

// OfferSummary is the public view of an open offer.
type OfferSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OfferType   string     `json:"offer_type"`
	Priority    int        `json:"priority"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}
