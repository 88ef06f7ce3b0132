package queries

import (
	"context"

	"fulfillment/internal/core/ports"
)

type ListNotificationsQueryHandler struct {
	orders        ports.OrderRepository
	notifications ports.NotificationRepository
}

func NewListNotificationsQueryHandler(
	orders ports.OrderRepository,
	notifications ports.NotificationRepository,
) ListNotificationsQueryHandler {
	return ListNotificationsQueryHandler{orders: orders, notifications: notifications}
}

func (h ListNotificationsQueryHandler) Handle(
	ctx context.Context,
	query ListNotificationsQuery,
) ([]ListNotificationsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.orders.Get(ctx, query.OrderID()); err != nil {
		return nil, err
	}

	requests, err := h.notifications.ListByOrder(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	out := make([]ListNotificationsQueryResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, ListNotificationsQueryResponse{
			ID:          r.ID(),
			TemplateKey: r.TemplateKey(),
			Attempts:    r.Attempts(),
			Delivered:   r.Delivered(),
			CreatedAt:   r.CreatedAt(),
		})
	}
	return out, nil
}
