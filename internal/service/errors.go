package service

import "github.com/go-faster/errors"

var (
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrVoucherInactive    = errors.New("voucher is not active")
	ErrVoucherUnavailable = errors.New("voucher unavailable")
	ErrUsageLimitReached  = errors.New("usage limit reached")
	ErrProductNotFound    = errors.New("product not found")
	ErrEmptyBasket        = errors.New("basket is empty")
	ErrInvalidBasket      = errors.New("invalid basket")
)
