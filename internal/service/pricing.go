package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
)

// priced turns an evaluation into the response shape.
func (s *OfferService) priced(ev *evaluation, req models.Basket) *models.PricedBasket {
	charge := s.defaultShipping
	if req.ShippingCharge != nil {
		charge = *req.ShippingCharge
	}

	lineDiscounts := make([]decimal.Decimal, len(ev.basket.Lines))
	for i := range lineDiscounts {
		lineDiscounts[i] = decimal.Zero
	}
	for _, app := range ev.apps.All() {
		if app.Effect() != offer.EffectBasket {
			continue
		}
		for _, res := range app.Results {
			for _, ld := range res.Lines {
				lineDiscounts[ld.Line] = lineDiscounts[ld.Line].Add(ld.Amount)
			}
		}
	}

	total := ev.basket.Total(s.inclTax)
	discount := ev.apps.TotalBasketDiscount()
	out := &models.PricedBasket{
		EvaluationID:       uuid.NewString(),
		BasketID:           ev.basket.ID,
		Total:              total,
		Discount:           discount,
		TotalAfterDiscount: decimal.Max(decimal.Zero, total.Sub(discount)),
		ShippingCharge:     charge,
		ShippingDiscount:   ev.apps.ShippingDiscount(charge),
		Lines:              make([]models.PricedLine, 0, len(ev.basket.Lines)),
		Discounts:          make([]models.Discount, 0, ev.apps.Len()),
	}

	for i, l := range ev.basket.Lines {
		unit, ok := l.UnitPrice(s.inclTax)
		if !ok {
			unit = decimal.Zero
		}
		gross := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		out.Lines = append(out.Lines, models.PricedLine{
			Reference: l.Reference,
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			Discount:  lineDiscounts[i],
			LineTotal: gross.Sub(lineDiscounts[i]),
		})
	}

	for _, rec := range ev.apps.Records() {
		out.Discounts = append(out.Discounts, models.Discount{
			OfferID:     rec.OfferID,
			OfferName:   rec.OfferName,
			VoucherID:   rec.VoucherID,
			VoucherCode: rec.VoucherCode,
			Effect:      rec.Effect,
			Amount:      rec.Amount,
			Frequency:   rec.Frequency,
			Message:     rec.Message,
		})
	}
	for _, app := range ev.apps.PostOrderActions() {
		out.PostOrderActions = append(out.PostOrderActions, app.Result.Description)
	}
	out.Upsells = upsells(ev, s.inclTax)
	return out
}

// upsells lists what the customer could add to unlock offers that did not
// apply.
func upsells(ev *evaluation, inclTax bool) []string {
	scope := offer.Scope{Basket: &ev.basket, Ledger: ev.ledger, InclTax: inclTax}
	var out []string
	for _, o := range offer.SortByPriority(ev.offers) {
		if _, applied := ev.apps.Get(o.ID); applied {
			continue
		}
		if !o.IsConditionPartiallySatisfied(scope) {
			continue
		}
		if msg := o.UpsellMessage(scope); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}
