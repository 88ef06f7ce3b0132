package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// MaxQuantity bounds a single order line.
const MaxQuantity = 10_000

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Draft is what the ordering flow hands over when a client checks out.
type Draft struct {
	ClientID      kernel.UUID
	DesignID      kernel.UUID
	DesignTitle   string
	SupportID     kernel.UUID
	Capability    provider.Capability
	ShipTo        kernel.Location
	Quantity      int
	UnitPrice     kernel.Money
	Customization Customization
	Contact       Contact
}

// Snapshot is the full persisted state of an order. It is the only way
// adapters read or rebuild the aggregate.
type Snapshot struct {
	ID            kernel.UUID
	ClientID      kernel.UUID
	DesignID      kernel.UUID
	DesignTitle   string
	SupportID     kernel.UUID
	Capability    provider.Capability
	ShipTo        kernel.Location
	ProviderID    *kernel.UUID
	Quantity      int
	UnitPrice     kernel.Money
	TotalPrice    kernel.Money
	Customization Customization
	Contact       Contact
	Status        Status
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Order is one customer purchase of one design × support × customization
// bundle. It is the aggregate root of the fulfillment lifecycle.
//
// Invariants:
//   - providerID is set if and only if the status requires a provider
//   - totalPrice = unitPrice × quantity, fixed at creation
//   - every status change goes through the transition table and bumps version
type Order struct {
	id            kernel.UUID
	clientID      kernel.UUID
	designID      kernel.UUID
	designTitle   string
	supportID     kernel.UUID
	capability    provider.Capability
	shipTo        kernel.Location
	providerID    *kernel.UUID
	quantity      int
	unitPrice     kernel.Money
	totalPrice    kernel.Money
	customization Customization
	contact       Contact
	status        Status
	version       int
	createdAt     time.Time
	updatedAt     time.Time
	guard         guard.ConstructorGuard
}

// NewOrder creates a pending order from a checkout draft and returns it along
// with its creation history record.
//
//	o, created, err := order.NewOrder(kernel.NewUUID(), draft, time.Now())
func NewOrder(id kernel.UUID, d Draft, now time.Time) (*Order, HistoryRecord, error) {
	now = now.UTC()
	o := &Order{
		designTitle:   strings.TrimSpace(d.DesignTitle),
		customization: d.Customization,
		contact:       d.Contact,
		status:        Pending,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setParty("client id", &o.clientID, d.ClientID),
		o.setParty("design id", &o.designID, d.DesignID),
		o.setParty("support id", &o.supportID, d.SupportID),
		o.setCapability(d.Capability),
		o.setShipTo(d.ShipTo),
		o.setContact(d.Contact),
		o.setPricing(d.Quantity, d.UnitPrice),
	); err != nil {
		return nil, HistoryRecord{}, err
	}

	created := HistoryRecord{
		OrderID: o.id,
		From:    Unknown,
		To:      Pending,
		Actor:   ActorClient,
		Note:    "order placed",
		At:      now,
	}
	return o, created, nil
}

// RestoreOrder rebuilds an order from persistence, re-checking every invariant.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		designTitle:   s.DesignTitle,
		customization: s.Customization,
		contact:       s.Contact,
		version:       s.Version,
		createdAt:     s.CreatedAt.UTC(),
		updatedAt:     s.UpdatedAt.UTC(),
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setParty("client id", &o.clientID, s.ClientID),
		o.setParty("design id", &o.designID, s.DesignID),
		o.setParty("support id", &o.supportID, s.SupportID),
		o.setCapability(s.Capability),
		o.setShipTo(s.ShipTo),
		o.setPricing(s.Quantity, s.UnitPrice),
		o.setStatus(s.Status, s.ProviderID),
	); err != nil {
		return nil, err
	}

	if s.TotalPrice != o.totalPrice {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"total price",
			fmt.Errorf("stored %s does not match %s × %d", s.TotalPrice, s.UnitPrice, s.Quantity),
		)
	}
	if s.Version < 1 {
		return nil, errs.NewValueIsOutOfRangeError("version", s.Version, 1, math.MaxInt)
	}

	return o, nil
}

// Validate ensures the order was built by a constructor.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID                         { return o.id }
func (o *Order) ClientID() kernel.UUID                   { return o.clientID }
func (o *Order) DesignID() kernel.UUID                   { return o.designID }
func (o *Order) DesignTitle() string                     { return o.designTitle }
func (o *Order) SupportID() kernel.UUID                  { return o.supportID }
func (o *Order) RequiredCapability() provider.Capability { return o.capability }
func (o *Order) ShipTo() kernel.Location                 { return o.shipTo }
func (o *Order) Quantity() int                           { return o.quantity }
func (o *Order) UnitPrice() kernel.Money                 { return o.unitPrice }
func (o *Order) TotalPrice() kernel.Money                { return o.totalPrice }
func (o *Order) Customization() Customization            { return o.customization }
func (o *Order) Contact() Contact                        { return o.contact }
func (o *Order) Status() Status                          { return o.status }
func (o *Order) Version() int                            { return o.version }
func (o *Order) CreatedAt() time.Time                    { return o.createdAt }
func (o *Order) UpdatedAt() time.Time                    { return o.updatedAt }

// Provider returns the assigned provider, nil while pending, cancelled or refunded.
func (o *Order) Provider() *kernel.UUID {
	if o.providerID == nil {
		return nil
	}
	id := *o.providerID
	return &id
}

// Snapshot exports the order state for persistence.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:            o.id,
		ClientID:      o.clientID,
		DesignID:      o.designID,
		DesignTitle:   o.designTitle,
		SupportID:     o.supportID,
		Capability:    o.capability,
		ShipTo:        o.shipTo,
		ProviderID:    o.Provider(),
		Quantity:      o.quantity,
		UnitPrice:     o.unitPrice,
		TotalPrice:    o.totalPrice,
		Customization: o.customization,
		Contact:       o.contact,
		Status:        o.status,
		Version:       o.version,
		CreatedAt:     o.createdAt,
		UpdatedAt:     o.updatedAt,
	}
}

// ValidateAssign checks that the order can still be matched to a provider.
func (o *Order) ValidateAssign() error {
	if o.status != Pending {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotPending, o.id, o.status)
	}
	return nil
}

// Assign binds the order to a provider: pending -> assigned, performed by the
// matching engine. The order is untouched on error.
func (o *Order) Assign(providerID kernel.UUID, now time.Time) (HistoryRecord, error) {
	if err := providerID.Validate(); err != nil {
		return HistoryRecord{}, err
	}
	if err := o.ValidateAssign(); err != nil {
		return HistoryRecord{}, err
	}
	next, err := o.status.Transition(ActorMatchingEngine, Assigned)
	if err != nil {
		return HistoryRecord{}, err
	}

	o.providerID = &providerID
	return o.apply(next, ActorMatchingEngine, "assigned to provider "+providerID.String(), now), nil
}

// Advance performs any non-assignment transition on behalf of actor. Entering
// cancelled or refunded clears the provider reference. The order is untouched
// on error.
//
//	rec, err := o.Advance(order.ActorProvider, order.InProduction, "", time.Now())
func (o *Order) Advance(actor Actor, target Status, note string, now time.Time) (HistoryRecord, error) {
	if target == Assigned {
		return HistoryRecord{}, fmt.Errorf("%w: assignment requires a provider", ErrInvalidTransition)
	}
	next, err := o.status.Transition(actor, target)
	if err != nil {
		return HistoryRecord{}, err
	}

	if next == Cancelled || next == Refunded {
		o.providerID = nil
	}
	return o.apply(next, actor, strings.TrimSpace(note), now), nil
}

func (o *Order) apply(next Status, actor Actor, note string, now time.Time) HistoryRecord {
	rec := HistoryRecord{
		OrderID: o.id,
		From:    o.status,
		To:      next,
		Actor:   actor,
		Note:    note,
		At:      now.UTC(),
	}
	o.status = next
	o.version++
	o.updatedAt = rec.At
	return rec
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setParty(name string, dst *kernel.UUID, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause(name, err)
	}
	*dst = id
	return nil
}

func (o *Order) setCapability(c provider.Capability) error {
	if err := c.Validate(); err != nil {
		return err
	}
	o.capability = c
	return nil
}

func (o *Order) setShipTo(loc kernel.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	o.shipTo = loc
	return nil
}

func (o *Order) setContact(c Contact) error {
	if c.email == "" {
		return errs.NewValueIsRequiredError("contact email")
	}
	o.contact = c
	return nil
}

func (o *Order) setPricing(quantity int, unitPrice kernel.Money) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, MaxQuantity)
	}
	if err := unitPrice.Validate(); err != nil {
		return err
	}
	total, err := unitPrice.Multiply(quantity)
	if err != nil {
		return err
	}
	o.quantity = quantity
	o.unitPrice = unitPrice
	o.totalPrice = total
	return nil
}

func (o *Order) setStatus(status Status, providerID *kernel.UUID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if providerID != nil {
		if err := providerID.Validate(); err != nil {
			return err
		}
	}
	if err := status.ValidateCanHaveProvider(providerID != nil); err != nil {
		return err
	}
	o.status = status
	if providerID != nil {
		id := *providerID
		o.providerID = &id
	}
	return nil
}
