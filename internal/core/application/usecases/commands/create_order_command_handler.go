package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"

	"go.uber.org/zap"
)

// CreateOrderResult is what the ordering flow gets back. A pending status
// means the order awaits assignment; that is not an error.
type CreateOrderResult struct {
	OrderID    kernel.UUID
	Status     order.Status
	ProviderID *kernel.UUID
}

// AwaitingAssignment reports whether no provider could take the order yet.
func (r CreateOrderResult) AwaitingAssignment() bool {
	return r.Status == order.Pending
}

// CreateOrderCommandHandler stores the pending order with its creation record
// and then runs provider assignment.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	assigner   AssignProviderCommandHandler
	effects    Effects
	log        *zap.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	assigner AssignProviderCommandHandler,
	effects Effects,
	log *zap.Logger,
) CreateOrderCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
		effects:    effects,
		log:        log,
	}
}

// Handle creates the order and assigns it. Once the order is committed the
// call succeeds: a failed assignment leaves it pending for the retry sweep.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	o, created, err := order.NewOrder(cmd.OrderID(), cmd.Draft(), time.Now())
	if err != nil {
		return CreateOrderResult{}, err
	}

	if err = h.store(ctx, o, created); err != nil {
		return CreateOrderResult{}, err
	}
	h.effects.Committed(ctx, o, created)

	pending := CreateOrderResult{OrderID: o.ID(), Status: order.Pending}

	assignCmd, err := NewAssignProviderCommand(o.ID())
	if err != nil {
		return pending, nil
	}
	res, err := h.assigner.Handle(ctx, assignCmd)
	switch {
	case err == nil:
		return CreateOrderResult{OrderID: o.ID(), Status: res.Status, ProviderID: res.ProviderID}, nil
	case errors.Is(err, services.ErrNoEligibleProvider):
		return pending, nil
	case errors.Is(err, order.ErrOrderNotPending):
		// The retry sweep got there first.
		return CreateOrderResult{OrderID: o.ID(), Status: res.Status, ProviderID: res.ProviderID}, nil
	default:
		h.log.Warn("assignment after creation failed; order left pending",
			zap.Stringer("order_id", o.ID()), zap.Error(err))
		return pending, nil
	}
}

func (h CreateOrderCommandHandler) store(ctx context.Context, o *order.Order, created order.HistoryRecord) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	if err := orders.Add(ctx, o); err != nil {
		return err
	}
	if err := orders.AppendHistory(ctx, created); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
