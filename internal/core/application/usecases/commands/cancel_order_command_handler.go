package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
)

// CancelOrderCommandHandler moves an order to cancelled through the state
// machine, releasing its provider slot if it held one.
type CancelOrderCommandHandler struct {
	advance AdvanceStatusCommandHandler
}

func NewCancelOrderCommandHandler(advance AdvanceStatusCommandHandler) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{advance: advance}
}

func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (order.Status, error) {
	if err := cmd.Validate(); err != nil {
		return order.Unknown, err
	}

	advanceCmd, err := NewAdvanceStatusCommand(cmd.OrderID(), cmd.Actor(), order.Cancelled, cmd.Reason())
	if err != nil {
		return order.Unknown, err
	}
	return h.advance.Handle(ctx, advanceCmd)
}
