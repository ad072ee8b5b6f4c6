package offer

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultMaxApplications bounds how often one offer repeats on a basket when
// nothing else caps it.
const DefaultMaxApplications = 10000

type Type string

const (
	TypeSite    Type = "site"
	TypeVoucher Type = "voucher"
	TypeUser    Type = "user"
	TypeSession Type = "session"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusSuspended Status = "suspended"
	StatusConsumed  Status = "consumed"
)

type State string

const (
	StateNotYetStarted State = "not-yet-started"
	StateOpen          State = "open"
	StateExpired       State = "expired"
	StateSuspended     State = "suspended"
	StateConsumed      State = "consumed"
)

// ConditionalOffer binds a condition to a benefit. Zero caps mean no cap and
// zero StartAt or EndAt mean an open-ended window.
type ConditionalOffer struct {
	ID          string
	Name        string
	Description string
	Type        Type
	Condition   Condition
	Benefit     Benefit
	Priority    int
	// Combinable offers may stack on units other combinable offers claimed.
	Combinable bool
	Status     Status
	StartAt    time.Time
	EndAt      time.Time

	MaxGlobalApplications int
	MaxUserApplications   int
	MaxBasketApplications int
	MaxDiscount           decimal.NullDecimal

	TotalDiscount   decimal.Decimal
	NumApplications int
	NumOrders       int

	CreatedAt time.Time
	Sequence  int64

	Voucher *Voucher
}

// Usage is what the caller knows about past applications of an offer by the
// current user.
type Usage struct {
	UserApplications int
}

// State reports where the offer is in its lifecycle at now.
func (o *ConditionalOffer) State(now time.Time) State {
	switch {
	case o.Status == StatusSuspended:
		return StateSuspended
	case o.Status == StatusConsumed:
		return StateConsumed
	case !o.StartAt.IsZero() && now.Before(o.StartAt):
		return StateNotYetStarted
	case !o.EndAt.IsZero() && !now.Before(o.EndAt):
		return StateExpired
	}
	return StateOpen
}

func (o *ConditionalOffer) IsAvailable(now time.Time) bool {
	return o.State(now) == StateOpen
}

// Eligible keeps the offers that are open at now. The Applicator does not
// look at dates, so callers filter with this first.
func Eligible(offers []*ConditionalOffer, now time.Time) []*ConditionalOffer {
	out := make([]*ConditionalOffer, 0, len(offers))
	for _, o := range offers {
		if o.IsAvailable(now) {
			out = append(out, o)
		}
	}
	return out
}

// MaxApplications returns how many times the offer may still be applied to a
// basket owned by userID.
func (o *ConditionalOffer) MaxApplications(userID string, u Usage) int {
	if o.MaxDiscount.Valid && o.TotalDiscount.GreaterThanOrEqual(o.MaxDiscount.Decimal) {
		return 0
	}
	limit := DefaultMaxApplications
	if o.MaxGlobalApplications > 0 {
		limit = min(limit, max(0, o.MaxGlobalApplications-o.NumApplications))
	}
	if userID != "" && o.MaxUserApplications > 0 {
		limit = min(limit, max(0, o.MaxUserApplications-u.UserApplications))
	}
	if o.MaxBasketApplications > 0 {
		limit = min(limit, o.MaxBasketApplications)
	}
	return limit
}

func (o *ConditionalOffer) IsConditionSatisfied(s Scope) bool {
	s.Offer = o
	return o.Condition.IsSatisfied(s)
}

func (o *ConditionalOffer) IsConditionPartiallySatisfied(s Scope) bool {
	s.Offer = o
	return o.Condition.IsPartiallySatisfied(s)
}

func (o *ConditionalOffer) UpsellMessage(s Scope) string {
	s.Offer = o
	return o.Condition.UpsellMessage(s)
}

// Apply claims the condition's units and runs the benefit once. Calling it
// when the condition does not hold is a caller bug.
func (o *ConditionalOffer) Apply(s Scope) (ApplicationResult, error) {
	s.Offer = o
	if !o.Condition.IsSatisfied(s) {
		return ApplicationResult{}, errors.Wrapf(ErrConditionNotSatisfied, "apply offer %s", o.ID)
	}
	claims := o.Condition.Consume(s)
	return o.Benefit.apply(s, claims), nil
}

// ShippingDiscount is the amount a shipping offer takes off charge.
func (o *ConditionalOffer) ShippingDiscount(charge decimal.Decimal) decimal.Decimal {
	if sb, ok := o.Benefit.(ShippingBenefit); ok {
		return sb.ShippingDiscount(charge)
	}
	return zero
}

// WithVoucher returns a copy of the offer bound to v.
func (o *ConditionalOffer) WithVoucher(v *Voucher) *ConditionalOffer {
	cp := *o
	cp.Voucher = v
	return &cp
}

// Validate checks the definition can be evaluated.
func (o *ConditionalOffer) Validate() error {
	if o.ID == "" {
		return &ConfigError{Component: "offer", Field: "id", Reason: "required"}
	}
	if o.Condition == nil {
		return errors.Wrapf(&ConfigError{Component: "offer", Field: "condition", Reason: "required"}, "offer %s", o.ID)
	}
	if o.Benefit == nil {
		return errors.Wrapf(&ConfigError{Component: "offer", Field: "benefit", Reason: "required"}, "offer %s", o.ID)
	}
	if !o.StartAt.IsZero() && !o.EndAt.IsZero() && o.StartAt.After(o.EndAt) {
		return errors.Wrapf(&ConfigError{Component: "offer", Field: "end_at", Reason: "before start_at"}, "offer %s", o.ID)
	}
	if o.MaxDiscount.Valid && o.MaxDiscount.Decimal.IsNegative() {
		return errors.Wrapf(&ConfigError{Component: "offer", Field: "max_discount", Reason: "must not be negative"}, "offer %s", o.ID)
	}
	if err := o.Condition.Validate(); err != nil {
		return errors.Wrapf(err, "offer %s", o.ID)
	}
	if err := o.Benefit.Validate(); err != nil {
		return errors.Wrapf(err, "offer %s", o.ID)
	}
	return nil
}

// Describe joins the condition and benefit descriptions.
func (o *ConditionalOffer) Describe() string {
	if o.Description != "" {
		return o.Description
	}
	return o.Condition.Describe() + "; " + o.Benefit.Describe()
}
