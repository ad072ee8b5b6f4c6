package offer

import "github.com/shopspring/decimal"

// Effect classifies what an application changes.
type Effect int

const (
	EffectBasket Effect = iota
	EffectShipping
	EffectPostOrder
)

func (e Effect) String() string {
	switch e {
	case EffectShipping:
		return "shipping"
	case EffectPostOrder:
		return "post_order"
	default:
		return "basket"
	}
}

// LineDiscount is the part of a basket discount that lands on one line.
type LineDiscount struct {
	Line     int
	Quantity int
	Amount   decimal.Decimal
}

// ApplicationResult is the outcome of applying an offer once. Applied is true
// whenever the benefit ran, including when it computed a zero discount.
type ApplicationResult struct {
	Effect      Effect
	Applied     bool
	Discount    decimal.Decimal
	Lines       []LineDiscount
	Consumed    []Claim
	Description string

	shipping ShippingBenefit
}

// IsSuccessful reports whether the application changed anything.
func (r ApplicationResult) IsSuccessful() bool {
	if !r.Applied {
		return false
	}
	if r.Effect == EffectBasket {
		return r.Discount.IsPositive()
	}
	return true
}

// IsFinal reports whether the offer must not be applied again to the same
// basket.
func (r ApplicationResult) IsFinal() bool {
	return r.Effect != EffectBasket
}

// ShippingDiscount is the amount this result takes off charge.
func (r ApplicationResult) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	if r.Effect != EffectShipping || r.shipping == nil {
		return zero
	}
	return r.shipping.ShippingDiscount(charge)
}

// Application accumulates every application of one offer in one evaluation.
type Application struct {
	Offer     *ConditionalOffer
	Voucher   *Voucher
	Result    ApplicationResult
	Results   []ApplicationResult
	Discount  decimal.Decimal
	Frequency int
}

func (a *Application) Effect() Effect {
	return a.Result.Effect
}

// Record is what the order reporting side persists per applied offer.
type Record struct {
	OfferID     string          `json:"offer_id"`
	OfferName   string          `json:"offer_name"`
	VoucherID   string          `json:"voucher_id,omitempty"`
	VoucherCode string          `json:"voucher_code,omitempty"`
	Effect      string          `json:"effect"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   int             `json:"frequency"`
	Message     string          `json:"message,omitempty"`
}

// VoucherDiscount is the basket discount attributed to one voucher code.
type VoucherDiscount struct {
	Voucher  *Voucher
	Discount decimal.Decimal
}

// OfferApplications is the result of one evaluation, keyed by offer ID and
// kept in the order offers were first applied.
type OfferApplications struct {
	order []string
	apps  map[string]*Application
}

func NewOfferApplications() *OfferApplications {
	return &OfferApplications{apps: make(map[string]*Application)}
}

func (a *OfferApplications) Add(o *ConditionalOffer, r ApplicationResult) {
	app, ok := a.apps[o.ID]
	if !ok {
		app = &Application{Offer: o, Voucher: o.Voucher, Discount: zero}
		a.apps[o.ID] = app
		a.order = append(a.order, o.ID)
	}
	app.Result = r
	app.Results = append(app.Results, r)
	app.Discount = app.Discount.Add(r.Discount)
	app.Frequency++
}

func (a *OfferApplications) Len() int {
	return len(a.order)
}

func (a *OfferApplications) Get(offerID string) (*Application, bool) {
	app, ok := a.apps[offerID]
	return app, ok
}

// All returns every application in the order offers were applied.
func (a *OfferApplications) All() []*Application {
	out := make([]*Application, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.apps[id])
	}
	return out
}

func (a *OfferApplications) filter(keep func(*Application) bool) []*Application {
	var out []*Application
	for _, app := range a.All() {
		if keep(app) {
			out = append(out, app)
		}
	}
	return out
}

// OfferDiscounts returns basket discounts from offers not tied to a voucher.
func (a *OfferApplications) OfferDiscounts() []*Application {
	return a.filter(func(app *Application) bool {
		return app.Voucher == nil && app.Effect() == EffectBasket && app.Discount.IsPositive()
	})
}

// VoucherDiscounts returns basket discounts unlocked by a voucher.
func (a *OfferApplications) VoucherDiscounts() []*Application {
	return a.filter(func(app *Application) bool {
		return app.Voucher != nil && app.Effect() == EffectBasket
	})
}

// GroupedVoucherDiscounts sums voucher discounts per voucher code.
func (a *OfferApplications) GroupedVoucherDiscounts() []VoucherDiscount {
	var out []VoucherDiscount
	idx := make(map[string]int)
	for _, app := range a.VoucherDiscounts() {
		code := app.Voucher.Code
		if i, ok := idx[code]; ok {
			out[i].Discount = out[i].Discount.Add(app.Discount)
			continue
		}
		idx[code] = len(out)
		out = append(out, VoucherDiscount{Voucher: app.Voucher, Discount: app.Discount})
	}
	return out
}

func (a *OfferApplications) ShippingDiscounts() []*Application {
	return a.filter(func(app *Application) bool { return app.Effect() == EffectShipping })
}

func (a *OfferApplications) PostOrderActions() []*Application {
	return a.filter(func(app *Application) bool { return app.Effect() == EffectPostOrder })
}

// TotalBasketDiscount is the sum of all line discounts.
func (a *OfferApplications) TotalBasketDiscount() decimal.Decimal {
	total := zero
	for _, app := range a.All() {
		if app.Effect() == EffectBasket {
			total = total.Add(app.Discount)
		}
	}
	return total
}

// ShippingDiscount applies every shipping application to charge in turn and
// returns the total taken off. The charge never drops below zero.
func (a *OfferApplications) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	remaining := charge
	for _, app := range a.ShippingDiscounts() {
		d := decimal.Min(app.Result.ShippingDiscount(remaining), remaining)
		remaining = remaining.Sub(d)
	}
	return charge.Sub(remaining)
}

// Offers returns the applied offers in application order.
func (a *OfferApplications) Offers() []*ConditionalOffer {
	out := make([]*ConditionalOffer, 0, len(a.order))
	for _, app := range a.All() {
		out = append(out, app.Offer)
	}
	return out
}

func (a *OfferApplications) Records() []Record {
	out := make([]Record, 0, len(a.order))
	for _, app := range a.All() {
		rec := Record{
			OfferID:   app.Offer.ID,
			OfferName: app.Offer.Name,
			Effect:    app.Effect().String(),
			Amount:    app.Discount,
			Frequency: app.Frequency,
		}
		if app.Effect() == EffectPostOrder {
			rec.Message = app.Result.Description
		}
		if app.Voucher != nil {
			rec.VoucherID = app.Voucher.ID
			rec.VoucherCode = app.Voucher.Code
		}
		out = append(out, rec)
	}
	return out
}
