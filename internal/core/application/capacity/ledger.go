// Package capacity implements the capacity ledger: the only component that
// mutates a provider's reserved count. Every reservation is taken for a
// specific order, which makes releasing idempotent per order.
package capacity

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Ledger reserves and releases provider slots through the provider repository
// of the caller's unit of work, so reservations commit or roll back together
// with the order transition that caused them.
type Ledger struct {
	providers ports.ProviderRepository
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewLedger binds a ledger to a repository. metrics may be nil.
func NewLedger(providers ports.ProviderRepository, m *metrics.Metrics, log *zap.Logger) Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return Ledger{providers: providers, metrics: m, log: log}
}

// Reserve takes one slot of providerID for orderID. A provider without
// headroom yields provider.ErrCapacityExceeded and nothing changes.
func (l Ledger) Reserve(ctx context.Context, providerID, orderID kernel.UUID) error {
	if err := errors.Join(providerID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	err := l.providers.IncrementLoad(ctx, providerID, orderID)
	if errors.Is(err, provider.ErrCapacityExceeded) {
		l.log.Debug("reservation refused, provider full",
			zap.Stringer("provider_id", providerID), zap.Stringer("order_id", orderID))
		return err
	}
	if err != nil {
		return fmt.Errorf("reserve capacity of provider %s: %w", providerID, err)
	}
	return nil
}

// Release frees orderID's slot at providerID. Releasing twice is a no-op.
func (l Ledger) Release(ctx context.Context, providerID, orderID kernel.UUID) error {
	if err := errors.Join(providerID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	released, err := l.providers.DecrementLoad(ctx, providerID, orderID)
	if err != nil {
		return fmt.Errorf("release capacity of provider %s: %w", providerID, err)
	}
	l.metrics.Release(released)
	if !released {
		l.log.Info("capacity already released",
			zap.Stringer("provider_id", providerID), zap.Stringer("order_id", orderID))
	}
	return nil
}

// Load returns the provider's current reserved count and capacity.
func (l Ledger) Load(ctx context.Context, providerID kernel.UUID) (provider.Load, error) {
	if err := providerID.Validate(); err != nil {
		return provider.Load{}, err
	}
	return l.providers.GetLoad(ctx, providerID)
}

// Reconcile recomputes every reserved count from open reservations and logs
// each provider whose stored count had drifted.
func (l Ledger) Reconcile(ctx context.Context) ([]ports.LoadDrift, error) {
	drifts, err := l.providers.ReconcileLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile capacity: %w", err)
	}
	for _, d := range drifts {
		l.log.Warn("capacity drift corrected",
			zap.Stringer("provider_id", d.ProviderID),
			zap.Int("stored", d.Stored),
			zap.Int("actual", d.Actual))
	}
	l.metrics.DriftCorrected(len(drifts))
	return drifts, nil
}
