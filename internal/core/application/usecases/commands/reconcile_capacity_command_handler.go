package commands

import (
	"context"

	"fulfillment/internal/core/application/capacity"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// ReconcileCapacityCommandHandler recomputes every provider's reserved count
// from its open reservations and corrects drift.
type ReconcileCapacityCommandHandler struct {
	uowFactory ProviderUoWFactory
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewReconcileCapacityCommandHandler(
	uowFactory ProviderUoWFactory,
	m *metrics.Metrics,
	log *zap.Logger,
) ReconcileCapacityCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return ReconcileCapacityCommandHandler{uowFactory: uowFactory, metrics: m, log: log}
}

func (h ReconcileCapacityCommandHandler) Handle(ctx context.Context) ([]ports.LoadDrift, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	drift, err := capacity.NewLedger(uow.ProviderRepository(), h.metrics, h.log).Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return drift, nil
}
