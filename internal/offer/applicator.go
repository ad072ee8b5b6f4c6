package offer

import (
	"log/slog"
	"sort"

	"github.com/go-faster/errors"
)

// Applicator evaluates candidate offers against a basket. It trusts its input
// list: dates and usage types are the caller's concern, see Eligible.
type Applicator struct {
	inclTax  bool
	recorder DiscountRecorder
	log      *slog.Logger
}

type Option func(*Applicator)

// WithInclTax makes conditions and benefits use tax inclusive prices.
func WithInclTax(inclTax bool) Option {
	return func(a *Applicator) { a.inclTax = inclTax }
}

// WithRecorder reports every granted discount to r.
func WithRecorder(r DiscountRecorder) Option {
	return func(a *Applicator) { a.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Applicator) { a.log = l }
}

func NewApplicator(opts ...Option) *Applicator {
	a := &Applicator{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Evaluation is one run of the engine. Ledger may be nil, in which case a
// fresh one is used. Usage is keyed by offer ID.
type Evaluation struct {
	Basket Basket
	Ledger *Ledger
	Offers []*ConditionalOffer
	UserID string
	Usage  map[string]Usage
}

// Apply evaluates offers against b with a fresh ledger.
func (a *Applicator) Apply(b Basket, offers []*ConditionalOffer) (*OfferApplications, error) {
	return a.Evaluate(Evaluation{Basket: b, Offers: offers, UserID: b.OwnerID})
}

// Evaluate resets the ledger, walks the offers by descending priority and
// applies each one as often as its caps and the remaining units allow.
func (a *Applicator) Evaluate(ev Evaluation) (*OfferApplications, error) {
	ledger := ev.Ledger
	if ledger == nil {
		ledger = NewLedger()
	}
	ledger.Reset(ev.Basket)

	apps := NewOfferApplications()
	scope := Scope{Basket: &ev.Basket, Ledger: ledger, InclTax: a.inclTax}
	for _, o := range SortByPriority(ev.Offers) {
		limit := o.MaxApplications(ev.UserID, ev.Usage[o.ID])
		if limit == 0 {
			a.log.Debug("offer skipped", slog.String("offer", o.ID), slog.String("reason", "cap reached"))
			continue
		}
		for n := 0; n < limit; n++ {
			if !o.IsConditionSatisfied(scope) {
				if n == 0 {
					a.log.Debug("offer skipped", slog.String("offer", o.ID), slog.String("reason", "condition not satisfied"))
				}
				break
			}
			res, err := o.Apply(scope)
			if err != nil {
				return nil, errors.Wrap(err, "evaluate")
			}
			// only the first pass is kept when it changes nothing
			if n > 0 && !res.IsSuccessful() {
				break
			}
			apps.Add(o, res)
			if a.recorder != nil && res.Discount.IsPositive() {
				a.recorder.RecordDiscount(o.ID, res.Discount)
			}
			if res.IsFinal() || !res.IsSuccessful() {
				break
			}
		}
	}
	return apps, nil
}

// SortByPriority returns offers ordered by descending priority. Equal
// priorities keep creation order, then input order.
func SortByPriority(offers []*ConditionalOffer) []*ConditionalOffer {
	out := append([]*ConditionalOffer(nil), offers...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Sequence < b.Sequence
	})
	return out
}
