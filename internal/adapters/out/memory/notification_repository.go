package memory

import (
	"context"
	"slices"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
)

type NotificationRepository struct {
	uow *UnitOfWork
}

func (r *NotificationRepository) Add(ctx context.Context, request *notification.Request) error {
	if err := request.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		s.notifications[request.OrderID()] = append(s.notifications[request.OrderID()], request)
		return nil
	})
}

func (r *NotificationRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*notification.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*notification.Request
	_ = r.uow.run(func(s *state) error {
		out = slices.Clone(s.notifications[orderID])
		return nil
	})
	slices.SortStableFunc(out, func(a, b *notification.Request) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	})
	return out, nil
}
