package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type ProviderRepository struct {
	uow *UnitOfWork
}

func (r *ProviderRepository) Add(ctx context.Context, aggregate *provider.Provider) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		if _, ok := s.providers[aggregate.ID()]; ok {
			return errs.NewObjectAlreadyExistsError("provider", aggregate.ID().String())
		}
		s.providers[aggregate.ID()] = providerRow{provider: aggregate}
		return nil
	})
}

func (r *ProviderRepository) Get(ctx context.Context, id kernel.UUID) (*provider.Provider, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *provider.Provider
	err := r.uow.run(func(s *state) error {
		row, ok := s.providers[id]
		if !ok {
			return errs.NewObjectNotFoundError("provider", id.String())
		}
		var err error
		out, err = withRating(s, row.provider)
		return err
	})
	return out, err
}

func (r *ProviderRepository) GetActiveByCapability(
	ctx context.Context,
	capability provider.Capability,
) ([]*provider.Provider, error) {
	if err := capability.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*provider.Provider
	err := r.uow.run(func(s *state) error {
		for _, row := range s.providers {
			if !row.provider.IsEligibleFor(capability) {
				continue
			}
			p, err := withRating(s, row.provider)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b *provider.Provider) int { return compareIDs(a.ID(), b.ID()) })
	return out, nil
}

func (r *ProviderRepository) GetLoad(ctx context.Context, id kernel.UUID) (provider.Load, error) {
	if err := id.Validate(); err != nil {
		return provider.Load{}, err
	}
	if err := ctx.Err(); err != nil {
		return provider.Load{}, err
	}

	var load provider.Load
	err := r.uow.run(func(s *state) error {
		row, ok := s.providers[id]
		if !ok {
			return errs.NewObjectNotFoundError("provider", id.String())
		}
		var err error
		load, err = provider.NewLoad(row.reserved, row.provider.CapacityPerWeek())
		return err
	})
	return load, err
}

func (r *ProviderRepository) IncrementLoad(ctx context.Context, providerID, orderID kernel.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		row, ok := s.providers[providerID]
		if !ok {
			return errs.NewObjectNotFoundError("provider", providerID.String())
		}
		if res, ok := s.reservations[orderID]; ok && !res.released {
			if res.providerID.IsEqual(providerID) {
				return nil
			}
			return errs.NewObjectAlreadyExistsError("reservation", orderID.String())
		}
		if row.reserved >= row.provider.CapacityPerWeek() {
			return fmt.Errorf("%w: provider %s", provider.ErrCapacityExceeded, providerID)
		}

		row.reserved++
		s.providers[providerID] = row
		s.reservations[orderID] = reservation{providerID: providerID, reservedAt: time.Now().UTC()}
		return nil
	})
}

func (r *ProviderRepository) DecrementLoad(ctx context.Context, providerID, orderID kernel.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var released bool
	err := r.uow.run(func(s *state) error {
		row, ok := s.providers[providerID]
		if !ok {
			return errs.NewObjectNotFoundError("provider", providerID.String())
		}
		res, ok := s.reservations[orderID]
		if !ok || res.released || !res.providerID.IsEqual(providerID) {
			return nil
		}

		res.released = true
		s.reservations[orderID] = res
		row.reserved = max(row.reserved-1, 0)
		s.providers[providerID] = row
		released = true
		return nil
	})
	return released, err
}

// ReconcileLoads counts open reservations of orders that still hold capacity.
// Reservations whose order no longer does are closed on the way.
func (r *ProviderRepository) ReconcileLoads(ctx context.Context) ([]ports.LoadDrift, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var drifts []ports.LoadDrift
	_ = r.uow.run(func(s *state) error {
		actual := make(map[kernel.UUID]int, len(s.providers))
		for orderID, res := range s.reservations {
			if res.released {
				continue
			}
			if snap, ok := s.orders[orderID]; ok && snap.Status.HoldsCapacity() {
				actual[res.providerID]++
				continue
			}
			res.released = true
			s.reservations[orderID] = res
		}

		for id, row := range s.providers {
			if row.reserved == actual[id] {
				continue
			}
			drifts = append(drifts, ports.LoadDrift{ProviderID: id, Stored: row.reserved, Actual: actual[id]})
			row.reserved = actual[id]
			s.providers[id] = row
		}
		return nil
	})

	slices.SortFunc(drifts, func(a, b ports.LoadDrift) int { return compareIDs(a.ProviderID, b.ProviderID) })
	return drifts, nil
}

func withRating(s *state, p *provider.Provider) (*provider.Provider, error) {
	rating, _ := s.averageRating(p.ID())
	return provider.RestoreProvider(
		p.ID(), p.UserID(), p.BusinessName(), p.Location(), p.Capabilities(),
		p.CapacityPerWeek(), p.IsActive(), rating,
	)
}
