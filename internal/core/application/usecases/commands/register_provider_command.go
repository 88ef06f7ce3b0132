package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/pkg/guard"
)

var ErrRegisterProviderCommandIsNotConstructed = errors.New(
	"RegisterProviderCommand must be created via NewRegisterProviderCommand constructor",
)

type RegisterProviderCommand struct { //nolint:recvcheck //using for validation
	providerID      kernel.UUID
	userID          kernel.UUID
	businessName    string
	location        kernel.Location
	capabilities    provider.CapabilitySet
	capacityPerWeek int

	guard guard.ConstructorGuard
}

// NewRegisterProviderCommand validates the registration input by building
// the provider it describes.
func NewRegisterProviderCommand(
	providerID kernel.UUID,
	userID kernel.UUID,
	businessName string,
	location kernel.Location,
	capabilities provider.CapabilitySet,
	capacityPerWeek int,
) (RegisterProviderCommand, error) {
	if _, err := provider.NewProvider(providerID, userID, businessName, location, capabilities, capacityPerWeek); err != nil {
		return RegisterProviderCommand{}, err
	}

	return RegisterProviderCommand{
		providerID:      providerID,
		userID:          userID,
		businessName:    businessName,
		location:        location,
		capabilities:    capabilities,
		capacityPerWeek: capacityPerWeek,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c RegisterProviderCommand) Validate() error {
	return c.guard.Validate(ErrRegisterProviderCommandIsNotConstructed)
}

func (c RegisterProviderCommand) ProviderID() kernel.UUID { return c.providerID }
