package provider

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// MaxRating is the top of the review scale; ratings are normalized against it.
const MaxRating = 5.0

var (
	// ErrProviderIsNotConstructed is returned when a zero-value Provider is used.
	ErrProviderIsNotConstructed = errors.New("Provider must be created via NewProvider constructor")
	// ErrBusinessNameIsRequired is returned for an empty business name.
	ErrBusinessNameIsRequired = errs.NewValueIsRequiredError("business name")
)

// Provider is a local production entity. The orchestrator only reads providers;
// the single value it mutates is the reserved count, and that goes through the
// capacity ledger, never through this aggregate.
type Provider struct {
	id              kernel.UUID
	userID          kernel.UUID
	businessName    string
	location        kernel.Location
	capabilities    CapabilitySet
	capacityPerWeek int
	active          bool
	// rating is the mean review score in [0, MaxRating]; 0 means no reviews.
	rating float64
	guard  guard.ConstructorGuard
}

// NewProvider registers a new, active provider without reviews.
//
//	caps, _ := provider.NewCapabilitySet("t-shirt", "hoodie")
//	p, err := provider.NewProvider(kernel.NewUUID(), userID, "Atelier Nord", loc, caps, 40)
func NewProvider(
	id kernel.UUID,
	userID kernel.UUID,
	businessName string,
	location kernel.Location,
	capabilities CapabilitySet,
	capacityPerWeek int,
) (*Provider, error) {
	return RestoreProvider(id, userID, businessName, location, capabilities, capacityPerWeek, true, 0)
}

// RestoreProvider rebuilds a provider from persistence, including the derived
// rating computed by the repository.
func RestoreProvider(
	id kernel.UUID,
	userID kernel.UUID,
	businessName string,
	location kernel.Location,
	capabilities CapabilitySet,
	capacityPerWeek int,
	active bool,
	rating float64,
) (*Provider, error) {
	p := &Provider{
		active: active,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setID(id),
		p.setUserID(userID),
		p.setBusinessName(businessName),
		p.setLocation(location),
		p.setCapabilities(capabilities),
		p.setCapacityPerWeek(capacityPerWeek),
		p.setRating(rating),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate reports whether the provider was built by a constructor.
func (p *Provider) Validate() error {
	if p == nil {
		return ErrProviderIsNotConstructed
	}
	return p.guard.Validate(ErrProviderIsNotConstructed)
}

func (p *Provider) ID() kernel.UUID                 { return p.id }
func (p *Provider) UserID() kernel.UUID             { return p.userID }
func (p *Provider) BusinessName() string            { return p.businessName }
func (p *Provider) Location() kernel.Location       { return p.location }
func (p *Provider) Capabilities() CapabilitySet     { return p.capabilities }
func (p *Provider) CapacityPerWeek() int            { return p.capacityPerWeek }
func (p *Provider) IsActive() bool                  { return p.active }
func (p *Provider) Rating() float64                 { return p.rating }
func (p *Provider) HasCapability(c Capability) bool { return p.capabilities.Contains(c) }

// NormalizedRating maps the rating to [0, 1]. Providers without reviews score 0.
func (p *Provider) NormalizedRating() float64 {
	return p.rating / MaxRating
}

// IsEligibleFor reports whether the provider may be considered for an order
// requiring c: active and capable. Headroom is checked separately against the
// ledger.
func (p *Provider) IsEligibleFor(c Capability) bool {
	return p.active && p.HasCapability(c)
}

// Deactivate removes the provider from matching.
func (p *Provider) Deactivate() {
	p.active = false
}

// Activate makes the provider eligible again.
func (p *Provider) Activate() {
	p.active = true
}

func (p *Provider) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Provider) setUserID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("user id", err)
	}
	p.userID = id
	return nil
}

func (p *Provider) setBusinessName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBusinessNameIsRequired
	}
	p.businessName = name
	return nil
}

func (p *Provider) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	p.location = location
	return nil
}

func (p *Provider) setCapabilities(capabilities CapabilitySet) error {
	if capabilities.Len() == 0 {
		return errs.NewValueIsRequiredError("capabilities")
	}
	p.capabilities = capabilities
	return nil
}

func (p *Provider) setCapacityPerWeek(capacity int) error {
	if capacity < 0 {
		return errs.NewValueIsInvalidErrorWithCause("capacity per week", fmt.Errorf("%d is negative", capacity))
	}
	p.capacityPerWeek = capacity
	return nil
}

func (p *Provider) setRating(rating float64) error {
	if rating < 0 || rating > MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, 0, MaxRating)
	}
	p.rating = rating
	return nil
}
