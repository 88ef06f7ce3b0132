package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrAssignProviderCommandIsNotConstructed = errors.New(
	"AssignProviderCommand must be created via NewAssignProviderCommand constructor",
)

// AssignProviderCommand asks the matching engine to place one pending order.
// Re-sending it for an already assigned order is harmless.
type AssignProviderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAssignProviderCommand(orderID kernel.UUID) (AssignProviderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignProviderCommand{}, err
	}
	return AssignProviderCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignProviderCommand) Validate() error {
	return c.guard.Validate(ErrAssignProviderCommandIsNotConstructed)
}

func (c AssignProviderCommand) OrderID() kernel.UUID {
	return c.orderID
}
