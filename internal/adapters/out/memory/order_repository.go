package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		if _, ok := s.orders[aggregate.ID()]; ok {
			return errs.NewObjectAlreadyExistsError("order", aggregate.ID().String())
		}
		s.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap order.Snapshot
	err := r.uow.run(func(s *state) error {
		var ok bool
		if snap, ok = s.orders[id]; !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order.RestoreOrder(snap)
}

func (r *OrderRepository) CompareAndSwapStatus(
	ctx context.Context,
	aggregate *order.Order,
	expectedStatus order.Status,
	expectedVersion int,
) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		stored, ok := s.orders[aggregate.ID()]
		if !ok {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		if stored.Status != expectedStatus || stored.Version != expectedVersion {
			return fmt.Errorf("%w: order %s is %s v%d, expected %s v%d", order.ErrStaleState,
				aggregate.ID(), stored.Status, stored.Version, expectedStatus, expectedVersion)
		}
		s.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *OrderRepository) AppendHistory(ctx context.Context, record order.HistoryRecord) error {
	if err := record.OrderID.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		if _, ok := s.orders[record.OrderID]; !ok {
			return errs.NewObjectNotFoundError("order", record.OrderID.String())
		}
		s.history[record.OrderID] = append(s.history[record.OrderID], record)
		return nil
	})
}

func (r *OrderRepository) History(ctx context.Context, id kernel.UUID) ([]order.HistoryRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []order.HistoryRecord
	err := r.uow.run(func(s *state) error {
		if _, ok := s.orders[id]; !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		out = slices.Clone(s.history[id])
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b order.HistoryRecord) int {
		return a.At.Compare(b.At)
	})
	return out, nil
}

func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	return r.list(ctx, 0, func(snap order.Snapshot) bool { return matches(snap, filter) })
}

func (r *OrderRepository) ListPending(ctx context.Context, limit int) ([]*order.Order, error) {
	return r.list(ctx, limit, func(snap order.Snapshot) bool { return snap.Status == order.Pending })
}

func (r *OrderRepository) list(ctx context.Context, limit int, keep func(order.Snapshot) bool) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snaps []order.Snapshot
	_ = r.uow.run(func(s *state) error {
		for _, snap := range s.orders {
			if keep(snap) {
				snaps = append(snaps, snap)
			}
		}
		return nil
	})

	slices.SortFunc(snaps, func(a, b order.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	out := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := order.RestoreOrder(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func matches(snap order.Snapshot, f ports.OrderFilter) bool {
	if !inRange(snap.CreatedAt, f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, snap.Status) {
		return false
	}
	if f.ProviderID != nil && (snap.ProviderID == nil || !snap.ProviderID.IsEqual(*f.ProviderID)) {
		return false
	}
	if f.ClientID != nil && !snap.ClientID.IsEqual(*f.ClientID) {
		return false
	}
	return true
}

// inRange treats from as inclusive and to as exclusive; zero bounds are open.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func compareIDs(a, b kernel.UUID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
