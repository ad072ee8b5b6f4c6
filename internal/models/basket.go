package models

import "github.com/shopspring/decimal"

type BasketLine struct {
	Reference        string           `json:"reference" yaml:"reference"`
	ProductID        string           `json:"product_id" yaml:"product"`
	Quantity         int              `json:"quantity" yaml:"quantity"`
	UnitPriceExclTax *decimal.Decimal `json:"unit_price_excl_tax" yaml:"price_excl_tax"`
	UnitPriceInclTax *decimal.Decimal `json:"unit_price_incl_tax" yaml:"price_incl_tax"`
}

type Basket struct {
	ID             string           `json:"id" yaml:"id"`
	UserID         string           `json:"user_id,omitempty" yaml:"user,omitempty"`
	Lines          []BasketLine     `json:"lines" yaml:"lines"`
	VoucherCodes   []string         `json:"voucher_codes,omitempty" yaml:"vouchers,omitempty"`
	ShippingCharge *decimal.Decimal `json:"shipping_charge,omitempty" yaml:"shipping_charge,omitempty"`
}

type Product struct {
	ID              string         `json:"id" yaml:"id"`
	ParentID        string         `json:"parent_id,omitempty" yaml:"parent,omitempty"`
	Structure       string         `json:"structure,omitempty" yaml:"structure,omitempty"`
	ClassID         string         `json:"class_id,omitempty" yaml:"class,omitempty"`
	Categories      []Category     `json:"categories,omitempty" yaml:"categories,omitempty"`
	Attributes      map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	NotDiscountable bool           `json:"not_discountable,omitempty" yaml:"not_discountable,omitempty"`
}

type CheckoutRequest struct {
	OrderID string `json:"order_id"`
	Basket  Basket `json:"basket"`
}
