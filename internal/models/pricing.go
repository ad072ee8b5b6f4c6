package models

import "github.com/shopspring/decimal"

// PricedBasket is the result of running the offer engine on a basket.
type PricedBasket struct {
	EvaluationID       string          `json:"evaluation_id"`
	BasketID           string          `json:"basket_id"`
	OrderID            string          `json:"order_id,omitempty"`
	Total              decimal.Decimal `json:"total"`
	Discount           decimal.Decimal `json:"discount"`
	TotalAfterDiscount decimal.Decimal `json:"total_after_discount"`
	ShippingCharge     decimal.Decimal `json:"shipping_charge"`
	ShippingDiscount   decimal.Decimal `json:"shipping_discount"`
	Lines              []PricedLine    `json:"lines"`
	Discounts          []Discount      `json:"discounts"`
	PostOrderActions   []string        `json:"post_order_actions,omitempty"`
	Upsells            []string        `json:"upsells,omitempty"`
}

type PricedLine struct {
	Reference string          `json:"reference"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Discount is one applied offer as reported to the order side.
type Discount struct {
	OfferID     string          `json:"offer_id"`
	OfferName   string          `json:"offer_name"`
	VoucherID   string          `json:"voucher_id,omitempty"`
	VoucherCode string          `json:"voucher_code,omitempty"`
	Effect      string          `json:"effect"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   int             `json:"frequency"`
	Message     string          `json:"message,omitempty"`
}

type BatchResult struct {
	Basket *PricedBasket `json:"basket,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type VoucherStatus struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Active    bool     `json:"active"`
	Available bool     `json:"available"`
	Message   string   `json:"message,omitempty"`
	OfferIDs  []string `json:"offer_ids"`
}
