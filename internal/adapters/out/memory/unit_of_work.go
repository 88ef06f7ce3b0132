package memory

import (
	"context"
	"errors"

	"fulfillment/internal/core/ports"
)

// ErrInvalidTransaction is returned by Commit and Rollback without an open
// transaction.
var ErrInvalidTransaction = errors.New("no transaction in progress")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork is not safe for concurrent use; each goroutine creates its own.
type UnitOfWork struct {
	store *Store
	tx    *state
}

// Begin blocks until no other transaction is open. Calling it twice is a no-op.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.tx = u.store.state.clone()
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.tx == nil {
		return ErrInvalidTransaction
	}
	u.store.state = u.tx
	u.tx = nil
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil {
		return ErrInvalidTransaction
	}
	u.tx = nil
	u.store.mu.Unlock()
	return nil
}

// run executes fn against the transaction copy, or against the committed
// state under the store lock when no transaction is open.
func (u *UnitOfWork) run(fn func(s *state) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn(u.store.state)
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) ProviderRepository() ports.ProviderRepository {
	return &ProviderRepository{uow: u}
}

func (u *UnitOfWork) ReviewRepository() ports.ReviewRepository {
	return &ReviewRepository{uow: u}
}

func (u *UnitOfWork) NotificationRepository() ports.NotificationRepository {
	return &NotificationRepository{uow: u}
}
