package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"go.uber.org/zap"
)

// SweepResult summarizes one pass over pending orders.
type SweepResult struct {
	Scanned  int
	Assigned int
	Waiting  int
	Failed   int
}

// AssignPendingOrdersCommandHandler runs the matching engine for each pending
// order, oldest first. Orders picked up concurrently by another caller are
// skipped.
type AssignPendingOrdersCommandHandler struct {
	orders   ports.OrderRepository
	assigner AssignProviderCommandHandler
	log      *zap.Logger
}

func NewAssignPendingOrdersCommandHandler(
	orders ports.OrderRepository,
	assigner AssignProviderCommandHandler,
	log *zap.Logger,
) AssignPendingOrdersCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return AssignPendingOrdersCommandHandler{orders: orders, assigner: assigner, log: log}
}

func (h AssignPendingOrdersCommandHandler) Handle(ctx context.Context, cmd AssignPendingOrdersCommand) (SweepResult, error) {
	if err := cmd.Validate(); err != nil {
		return SweepResult{}, err
	}

	pending, err := h.orders.ListPending(ctx, cmd.Batch())
	if err != nil {
		return SweepResult{}, err
	}

	res := SweepResult{Scanned: len(pending)}
	for _, o := range pending {
		if err = ctx.Err(); err != nil {
			return res, err
		}

		assignCmd, err := NewAssignProviderCommand(o.ID())
		if err != nil {
			return res, err
		}

		_, err = h.assigner.Handle(ctx, assignCmd)
		switch {
		case err == nil:
			res.Assigned++
		case errors.Is(err, services.ErrNoEligibleProvider):
			res.Waiting++
		case errors.Is(err, order.ErrOrderNotPending), errors.Is(err, order.ErrStaleState):
		default:
			res.Failed++
			h.log.Warn("pending order assignment failed",
				zap.Stringer("order_id", o.ID()), zap.Error(err))
		}
	}

	return res, nil
}
