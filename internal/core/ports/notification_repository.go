package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
)

// NotificationRepository is the notification outcome log.
type NotificationRepository interface {
	Add(ctx context.Context, request *notification.Request) error
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*notification.Request, error)
}
