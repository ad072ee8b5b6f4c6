package offer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type VoucherUsage string

const (
	SingleUse       VoucherUsage = "single_use"
	MultiUse        VoucherUsage = "multi_use"
	OncePerCustomer VoucherUsage = "once_per_customer"
)

// Voucher unlocks its offers for a basket once the code is entered.
type Voucher struct {
	ID       string
	Code     string
	Name     string
	Usage    VoucherUsage
	StartAt  time.Time
	EndAt    time.Time
	OfferIDs []string

	NumBasketAdditions int
	NumOrders          int
	TotalDiscount      decimal.Decimal
}

// VoucherHistory is what storage knows about past redemptions.
type VoucherHistory struct {
	TotalApplications int
	UserApplications  int
}

// NormalizeCode makes codes case insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsActive reports whether now lies within the voucher window, bounds included.
func (v *Voucher) IsActive(now time.Time) bool {
	if !v.StartAt.IsZero() && now.Before(v.StartAt) {
		return false
	}
	if !v.EndAt.IsZero() && now.After(v.EndAt) {
		return false
	}
	return true
}

// IsAvailableToUser reports whether userID may redeem the voucher, and why
// not when it may not. An empty userID is an anonymous customer.
func (v *Voucher) IsAvailableToUser(userID string, h VoucherHistory) (bool, string) {
	switch v.Usage {
	case SingleUse:
		if h.TotalApplications > 0 {
			return false, "This voucher has already been used"
		}
		return true, ""
	case OncePerCustomer:
		if userID == "" {
			return false, "This voucher is only available to signed in users"
		}
		if h.UserApplications > 0 {
			return false, "You have already used this voucher in a previous order"
		}
		return true, ""
	case MultiUse, "":
		return true, ""
	}
	return false, "Unknown voucher usage"
}

// Bind returns the voucher's offers, each marked as unlocked by v.
func (v *Voucher) Bind(offers []*ConditionalOffer) []*ConditionalOffer {
	out := make([]*ConditionalOffer, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.WithVoucher(v))
	}
	return out
}

func (v *Voucher) Validate() error {
	if NormalizeCode(v.Code) == "" {
		return &ConfigError{Component: "voucher", Field: "code", Reason: "required"}
	}
	switch v.Usage {
	case SingleUse, MultiUse, OncePerCustomer, "":
	default:
		return &ConfigError{Component: "voucher " + v.Code, Field: "usage", Reason: "unknown " + string(v.Usage)}
	}
	if !v.StartAt.IsZero() && !v.EndAt.IsZero() && v.StartAt.After(v.EndAt) {
		return &ConfigError{Component: "voucher " + v.Code, Field: "end_at", Reason: "before start_at"}
	}
	return nil
}
