package kernel

import (
	"fmt"
	"math"

	"fulfillment/internal/pkg/errs"
)

// Money is an amount in minor currency units (cents). The service handles a
// single currency; conversion is the ordering flow's concern.
type Money int64

// NewMoney rejects negative amounts.
func NewMoney(minor int64) (Money, error) {
	m := Money(minor)
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m, nil
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m < 0 {
		return errs.NewValueIsOutOfRangeError("amount", int64(m), 0, int64(math.MaxInt64))
	}
	return nil
}

// Multiply returns m × n, failing on overflow.
func (m Money) Multiply(n int) (Money, error) {
	if n < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("multiplier", fmt.Errorf("%d is negative", n))
	}
	if n != 0 && int64(m) > math.MaxInt64/int64(n) {
		return 0, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%d × %d overflows", m, n))
	}
	return m * Money(n), nil
}

// Minor returns the raw amount in minor units.
func (m Money) Minor() int64 {
	return int64(m)
}

// String renders the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m/100, m%100)
}
