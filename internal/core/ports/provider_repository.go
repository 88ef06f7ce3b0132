package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"
)

// LoadDrift reports a provider whose stored reserved count disagreed with
// its open reservations and was corrected.
type LoadDrift struct {
	ProviderID kernel.UUID
	Stored     int
	Actual     int
}

// ProviderRepository is the persistence contract for providers and their
// capacity counters. Only the capacity ledger calls IncrementLoad and
// DecrementLoad.
type ProviderRepository interface {
	Add(ctx context.Context, aggregate *provider.Provider) error

	// Get returns the provider with its rating derived from reviews.
	Get(ctx context.Context, id kernel.UUID) (*provider.Provider, error)

	// GetActiveByCapability returns active providers carrying the tag,
	// ordered by id.
	GetActiveByCapability(ctx context.Context, capability provider.Capability) ([]*provider.Provider, error)

	// GetLoad returns the reserved count and weekly capacity.
	GetLoad(ctx context.Context, id kernel.UUID) (provider.Load, error)

	// IncrementLoad atomically takes one slot for orderID if the provider
	// still has headroom, and records the reservation. A full provider
	// yields provider.ErrCapacityExceeded and changes nothing.
	IncrementLoad(ctx context.Context, providerID, orderID kernel.UUID) error

	// DecrementLoad releases orderID's reservation. It is idempotent: an
	// already released or unknown reservation reports released=false and
	// leaves the counter alone. The counter never drops below zero.
	DecrementLoad(ctx context.Context, providerID, orderID kernel.UUID) (released bool, err error)

	// ReconcileLoads recomputes every reserved count from open reservations
	// and returns the providers that drifted.
	ReconcileLoads(ctx context.Context) ([]LoadDrift, error)
}
