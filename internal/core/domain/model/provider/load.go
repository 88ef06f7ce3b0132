package provider

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// ErrCapacityExceeded is returned when a reservation would push the reserved
// count above capacity per week. When it surfaces after scoring it means a
// concurrent assignment took the last slot.
var ErrCapacityExceeded = errors.New("provider capacity exceeded")

// Load is a provider's capacity ledger entry for the rolling week.
//
// Reserve never takes reserved past capacity. A load read from storage may
// still show reserved > capacity when a provider lowered its capacity while
// orders were in flight; such a load simply has no headroom.
type Load struct {
	reserved int
	capacity int
}

// NewLoad validates a load read from storage.
func NewLoad(reserved, capacity int) (Load, error) {
	if capacity < 0 {
		return Load{}, errs.NewValueIsOutOfRangeError("capacity per week", capacity, 0, "unbounded")
	}
	if reserved < 0 {
		return Load{}, errs.NewValueIsOutOfRangeError("reserved count", reserved, 0, "unbounded")
	}
	return Load{reserved: reserved, capacity: capacity}, nil
}

func (l Load) Reserved() int { return l.reserved }
func (l Load) Capacity() int { return l.capacity }

// Headroom is the number of free slots left this week.
func (l Load) Headroom() int {
	if h := l.capacity - l.reserved; h > 0 {
		return h
	}
	return 0
}

// HeadroomRatio is Headroom / Capacity in [0, 1]; zero-capacity providers get 0.
func (l Load) HeadroomRatio() float64 {
	if l.capacity <= 0 {
		return 0
	}
	return float64(l.Headroom()) / float64(l.capacity)
}

// CanReserve reports whether one more slot fits.
func (l Load) CanReserve() bool {
	return l.reserved < l.capacity
}

// Reserve returns the load with one more slot taken.
func (l Load) Reserve() (Load, error) {
	if !l.CanReserve() {
		return l, fmt.Errorf("%w: %d of %d slots reserved", ErrCapacityExceeded, l.reserved, l.capacity)
	}
	return Load{reserved: l.reserved + 1, capacity: l.capacity}, nil
}

// Release returns the load with one slot freed, floored at zero.
func (l Load) Release() Load {
	if l.reserved == 0 {
		return l
	}
	return Load{reserved: l.reserved - 1, capacity: l.capacity}
}

func (l Load) String() string {
	return fmt.Sprintf("%d/%d", l.reserved, l.capacity)
}
