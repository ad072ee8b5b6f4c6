package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/builder"
	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
)

// catalogue is the offer set compiled for one request.
type catalogue struct {
	builder *builder.Builder
	offers  []*offer.ConditionalOffer
	byID    map[string]*offer.ConditionalOffer
}

// offerSet returns the cached definitions, loading them from storage on a miss.
// Cache failures degrade to a storage read.
func (s *OfferService) offerSet(ctx context.Context) (*models.OfferSet, error) {
	set, ok, err := s.cache.GetOfferSet(ctx)
	if err != nil {
		s.log.Warn("offer cache read failed", slog.Any("error", err))
	}
	if ok && set != nil {
		return set, nil
	}

	now := s.now()
	categories, err := s.ranges.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load categories")
	}
	ranges, err := s.ranges.ListRanges(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load ranges")
	}
	offers, err := s.offers.ListOpen(ctx, now)
	if err != nil {
		return nil, errors.Wrap(err, "load offers")
	}
	set = &models.OfferSet{Offers: offers, Ranges: ranges, Categories: categories, LoadedAt: now}
	if err := s.cache.SetOfferSet(ctx, set); err != nil {
		s.log.Warn("offer cache write failed", slog.Any("error", err))
	}
	return set, nil
}

// catalogue compiles the offer set. A broken offer definition is logged and
// left out so it cannot take pricing down; broken ranges or categories fail
// the request because every offer may depend on them.
func (s *OfferService) catalogue(ctx context.Context) (*catalogue, error) {
	set, err := s.offerSet(ctx)
	if err != nil {
		return nil, err
	}
	b, err := builder.New(set.Categories)
	if err != nil {
		return nil, errors.Wrap(err, "compile categories")
	}
	if err := b.Ranges(set.Ranges); err != nil {
		return nil, errors.Wrap(err, "compile ranges")
	}

	cat := &catalogue{builder: b, byID: make(map[string]*offer.ConditionalOffer, len(set.Offers))}
	for i, def := range set.Offers {
		o, err := b.Offer(def)
		if err != nil {
			s.log.Warn("offer disabled", slog.String("offer", def.ID), slog.Any("error", err))
			continue
		}
		o.Sequence = int64(i)
		cat.offers = append(cat.offers, o)
		cat.byID[o.ID] = o
	}
	return cat, nil
}

// candidates returns the offers a basket may receive without a voucher.
func (c *catalogue) candidates(userID string, now time.Time) []*offer.ConditionalOffer {
	var out []*offer.ConditionalOffer
	for _, o := range offer.Eligible(c.offers, now) {
		switch o.Type {
		case offer.TypeVoucher:
		case offer.TypeUser:
			if userID != "" {
				out = append(out, o)
			}
		default:
			out = append(out, o)
		}
	}
	return out
}

// offersFor adds the open offers of each voucher, bound to it, to the
// candidates. An offer linked to several vouchers goes to the first.
func (c *catalogue) offersFor(userID string, vouchers []*offer.Voucher, now time.Time) []*offer.ConditionalOffer {
	out := c.candidates(userID, now)
	seen := make(map[string]bool, len(out))
	for _, o := range out {
		seen[o.ID] = true
	}
	for _, v := range vouchers {
		var linked []*offer.ConditionalOffer
		for _, id := range v.OfferIDs {
			o, ok := c.byID[id]
			if !ok || seen[id] || !o.IsAvailable(now) {
				continue
			}
			seen[id] = true
			linked = append(linked, o)
		}
		out = append(out, v.Bind(linked)...)
	}
	return out
}
