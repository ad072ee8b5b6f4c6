package offer

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrConditionNotSatisfied is returned by ConditionalOffer.Apply when the
	// caller did not check the condition first. It signals a bug in the caller.
	ErrConditionNotSatisfied = errors.New("offer condition not satisfied")
	// ErrUnknownKind is returned when a stored condition or benefit kind has no
	// implementation.
	ErrUnknownKind = errors.New("unknown kind")
)

// ConfigError describes an offer, range or voucher definition that cannot be
// evaluated. It is reported when definitions are loaded, never per basket.
type ConfigError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Component, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Component, e.Field, e.Reason)
}

// IsConfigError reports whether err is or wraps a ConfigError or ErrUnknownKind.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) || errors.Is(err, ErrUnknownKind)
}
