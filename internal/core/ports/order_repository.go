// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories, the unit of work, the notifier and the event
// publisher.
package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderFilter narrows List. Zero fields do not filter.
type OrderFilter struct {
	CreatedFrom time.Time
	CreatedTo   time.Time
	Statuses    []order.Status
	ProviderID  *kernel.UUID
	ClientID    *kernel.UUID
}

// OrderRepository is the persistence contract for order aggregates and their
// audit trail. Orders are never deleted.
type OrderRepository interface {
	// Add stores a new pending order. The creation history record is appended
	// separately through AppendHistory.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get returns the committed order or errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// CompareAndSwapStatus writes the aggregate's new status, provider
	// reference, version and timestamp, conditioned on the stored row still
	// having expectedStatus and expectedVersion. A lost race returns
	// order.ErrStaleState and writes nothing.
	CompareAndSwapStatus(
		ctx context.Context,
		aggregate *order.Order,
		expectedStatus order.Status,
		expectedVersion int,
	) error

	// AppendHistory stores one immutable transition record.
	AppendHistory(ctx context.Context, record order.HistoryRecord) error

	// History returns the order's records oldest first. An unknown order
	// yields errs.ErrObjectNotFound.
	History(ctx context.Context, id kernel.UUID) ([]order.HistoryRecord, error)

	// List returns orders matching filter, oldest first.
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// ListPending returns up to limit pending orders, oldest first.
	ListPending(ctx context.Context, limit int) ([]*order.Order, error)
}
