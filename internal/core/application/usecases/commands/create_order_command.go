package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrQuantityIsInvalid = errs.NewValueIsInvalidError("quantity must be greater than 0")
)

// CreateOrderCommand places a new order and immediately tries to match it
// with a provider.
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), draft)
//	res, err := handler.Handle(ctx, cmd)
//	if res.Status == order.Pending {
//	    // awaiting assignment
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	draft   order.Draft

	guard guard.ConstructorGuard
}

func NewCreateOrderCommand(orderID kernel.UUID, draft order.Draft) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setDraft(draft),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Draft() order.Draft {
	return c.draft
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setDraft(d order.Draft) error {
	if d.Quantity <= 0 {
		return ErrQuantityIsInvalid
	}
	if err := errors.Join(d.Capability.Validate(), d.ShipTo.Validate(), d.UnitPrice.Validate()); err != nil {
		return err
	}
	c.draft = d
	return nil
}
