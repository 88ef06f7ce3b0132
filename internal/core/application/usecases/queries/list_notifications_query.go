package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/pkg/guard"
)

var ErrListNotificationsQueryIsNotConstructed = errors.New(
	"ListNotificationsQuery must be created via NewListNotificationsQuery constructor",
)

type ListNotificationsQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewListNotificationsQuery(orderID kernel.UUID) (ListNotificationsQuery, error) {
	if err := orderID.Validate(); err != nil {
		return ListNotificationsQuery{}, err
	}
	return ListNotificationsQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q ListNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrListNotificationsQueryIsNotConstructed)
}

func (q ListNotificationsQuery) OrderID() kernel.UUID { return q.orderID }

type ListNotificationsQueryResponse struct {
	ID          kernel.UUID
	TemplateKey notification.TemplateKey
	Attempts    []notification.Attempt
	Delivered   bool
	CreatedAt   time.Time
}
