package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/application/capacity"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// AdvanceStatusCommandHandler is the order state machine entry point for
// provider, client and admin transitions. Leaving a capacity-holding status
// releases the provider slot in the same transaction as the status change.
type AdvanceStatusCommandHandler struct {
	uowFactory UoWFactory
	effects    Effects
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewAdvanceStatusCommandHandler(
	uowFactory UoWFactory,
	effects Effects,
	m *metrics.Metrics,
	log *zap.Logger,
) AdvanceStatusCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return AdvanceStatusCommandHandler{uowFactory: uowFactory, effects: effects, metrics: m, log: log}
}

// Handle returns the order's status after the call. On error the returned
// status is the one the order still has, or order.Unknown if it could not be
// read.
func (h AdvanceStatusCommandHandler) Handle(ctx context.Context, cmd AdvanceStatusCommand) (order.Status, error) {
	if err := cmd.Validate(); err != nil {
		return order.Unknown, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return order.Unknown, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	o, err := orders.Get(ctx, cmd.OrderID())
	if err != nil {
		return order.Unknown, err
	}

	from, version := o.Status(), o.Version()
	providerID := o.Provider()

	rec, err := o.Advance(cmd.Actor(), cmd.Target(), cmd.Note(), time.Now())
	if err != nil {
		return from, err
	}

	if err = orders.CompareAndSwapStatus(ctx, o, from, version); err != nil {
		if errors.Is(err, order.ErrStaleState) {
			h.metrics.StaleState()
		}
		return from, err
	}
	if err = orders.AppendHistory(ctx, rec); err != nil {
		return from, err
	}

	if order.ReleasesCapacity(from, rec.To) && providerID != nil {
		ledger := capacity.NewLedger(uow.ProviderRepository(), h.metrics, h.log)
		if err = ledger.Release(ctx, *providerID, o.ID()); err != nil {
			return from, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return from, err
	}

	h.effects.Committed(ctx, o, rec)
	return o.Status(), nil
}
