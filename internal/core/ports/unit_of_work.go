package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork for each command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories obtained after
// Begin share its transaction; the order status and the capacity ledger are
// therefore committed or rolled back together.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	// Rollback after Commit reports an invalid transaction; deferred calls ignore it.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository
	ProviderRepository() ProviderRepository
	ReviewRepository() ReviewRepository
	NotificationRepository() NotificationRepository
}
