// Package commands contains the business operations that change state.
// Every handler validates its command, runs inside one unit of work and
// fires best-effort side effects only after the commit succeeded.
package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// Unit of Work interfaces give handlers only the repositories they need.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	ProviderRepoFactory interface {
		ProviderRepository() ports.ProviderRepository
	}

	ReviewRepoFactory interface {
		ReviewRepository() ports.ReviewRepository
	}

	// ProviderUoW is used by provider registration.
	ProviderUoW interface {
		TxManager
		ProviderRepoFactory
	}

	ProviderUoWFactory interface {
		Create() ProviderUoW
	}

	// ReviewUoW reads the reviewed order and stores the review.
	ReviewUoW interface {
		TxManager
		OrderRepoFactory
		ReviewRepoFactory
	}

	ReviewUoWFactory interface {
		Create() ReviewUoW
	}

	// UoW spans orders and providers, so a status change and the capacity
	// ledger entry it implies commit together.
	//
	//	uow := factory.Create()
	//	if err := uow.Begin(ctx); err != nil {
	//	    return err
	//	}
	//	defer func() { _ = uow.Rollback(ctx) }()
	//	// ... orders and ledger
	//	return uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		ProviderRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// StatusNotifier delivers the client notification for a status an order
// just entered. Implementations must not block or fail the caller.
type StatusNotifier interface {
	Notify(ctx context.Context, o *order.Order, status order.Status)
}
