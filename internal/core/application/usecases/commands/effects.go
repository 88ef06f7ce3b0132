package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Effects runs the side effects of a committed transition: the client
// notification, the status-changed event and the transition counter. None of
// them can fail the transition.
type Effects struct {
	notifier StatusNotifier
	events   ports.EventPublisher
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewEffects wires the post-commit side effects. Any argument may be nil.
func NewEffects(notifier StatusNotifier, events ports.EventPublisher, m *metrics.Metrics, log *zap.Logger) Effects {
	if log == nil {
		log = zap.NewNop()
	}
	return Effects{notifier: notifier, events: events, metrics: m, log: log}
}

// Committed reports a transition that is already durable.
func (e Effects) Committed(ctx context.Context, o *order.Order, rec order.HistoryRecord) {
	log := e.log
	if log == nil {
		log = zap.NewNop()
	}

	e.metrics.Transition(rec.From.String(), rec.To.String(), rec.Actor.String())
	log.Info("order status changed",
		zap.Stringer("order_id", rec.OrderID),
		zap.Stringer("from", rec.From),
		zap.Stringer("to", rec.To),
		zap.Stringer("actor", rec.Actor),
		zap.Int("version", o.Version()))

	if e.notifier != nil {
		e.notifier.Notify(ctx, o, rec.To)
	}

	if e.events == nil {
		return
	}
	event := ports.StatusChanged{
		OrderID:    rec.OrderID,
		ProviderID: o.Provider(),
		From:       rec.From,
		To:         rec.To,
		Actor:      rec.Actor,
		Note:       rec.Note,
		Version:    o.Version(),
		At:         rec.At,
	}
	if err := e.events.PublishStatusChanged(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("publish status changed event", zap.Error(err), zap.Stringer("order_id", rec.OrderID))
	}
}
