package order

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

var (
	// ErrInvalidTransition is returned for any (from, to, actor) combination
	// missing from the transition table. The order is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrderNotPending is returned when assignment is requested for an order
	// that already left the pending status.
	ErrOrderNotPending = errors.New("order is not pending")

	// ErrStaleState is returned by conditional writes when the stored status or
	// version differs from what the caller read. Callers re-read and retry.
	ErrStaleState = errs.NewVersionIsInvalidError("order status")
)

// Status is the lifecycle state of an order.
//
//	pending ──> assigned ──> in_production ──> shipped ──> delivered ──┐
//	   │           │                                                   │
//	   └──────┬────┘                                                   v
//	          └──────────> cancelled ───────────────────────────────> refunded
type Status int

const (
	// Unknown is the zero value and never a valid stored status.
	Unknown Status = iota
	Pending
	Assigned
	InProduction
	Shipped
	Delivered
	Cancelled
	Refunded
)

var statusNames = map[Status]string{
	Pending:      "pending",
	Assigned:     "assigned",
	InProduction: "in_production",
	Shipped:      "shipped",
	Delivered:    "delivered",
	Cancelled:    "cancelled",
	Refunded:     "refunded",
}

// transitions maps from -> to -> the only actor allowed to perform it.
var transitions = map[Status]map[Status]Actor{
	Pending: {
		Assigned:  ActorMatchingEngine,
		Cancelled: ActorClient,
	},
	Assigned: {
		InProduction: ActorProvider,
		Cancelled:    ActorClient,
	},
	InProduction: {
		Shipped: ActorProvider,
	},
	Shipped: {
		Delivered: ActorProvider,
	},
	Delivered: {
		Refunded: ActorAdmin,
	},
	Cancelled: {
		Refunded: ActorAdmin,
	},
}

// ParseStatus converts the persisted / transported name back to a Status.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == needle {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further production progress happens from s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Refunded
}

// HoldsCapacity reports whether an order in s occupies a provider slot.
func (s Status) HoldsCapacity() bool {
	return s == Assigned || s == InProduction || s == Shipped
}

// RequiresProvider reports whether an order in s must carry a provider reference.
func (s Status) RequiresProvider() bool {
	return s == Assigned || s == InProduction || s == Shipped || s == Delivered
}

// CanTransition reports whether actor may move an order from s to target.
func (s Status) CanTransition(actor Actor, target Status) bool {
	allowed, ok := transitions[s][target]
	return ok && allowed == actor
}

// Transition validates a move from s to target requested by actor and returns
// the new status.
//
//	next, err := order.Pending.Transition(order.ActorClient, order.Cancelled)
func (s Status) Transition(actor Actor, target Status) (Status, error) {
	if err := errors.Join(s.Validate(), target.Validate(), actor.Validate()); err != nil {
		return Unknown, err
	}
	if !s.CanTransition(actor, target) {
		return Unknown, fmt.Errorf("%w: %s -> %s by %s", ErrInvalidTransition, s, target, actor)
	}
	return target, nil
}

// ValidateCanHaveProvider checks the provider-reference invariant for s.
func (s Status) ValidateCanHaveProvider(hasProvider bool) error {
	if hasProvider && !s.RequiresProvider() {
		return errs.NewValueIsInvalidErrorWithCause(
			"provider",
			fmt.Errorf("%s orders cannot have a provider", s),
		)
	}
	if !hasProvider && s.RequiresProvider() {
		return errs.NewValueIsInvalidErrorWithCause(
			"provider",
			fmt.Errorf("%s orders must have a provider", s),
		)
	}
	return nil
}

// ReleasesCapacity reports whether moving from -> to frees the provider slot.
// Refunds of delivered or cancelled orders never release a second time.
func ReleasesCapacity(from, to Status) bool {
	return from.HoldsCapacity() && !to.HoldsCapacity()
}

// MarshalText renders the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
