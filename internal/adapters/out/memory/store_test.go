package memory_test

import (
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, createdAt time.Time) *order.Order {
	t.Helper()
	loc, err := kernel.NewLocation("FR", "Occitanie", "Toulouse")
	require.NoError(t, err)
	contact, err := order.NewContact("client@example.com", "", false)
	require.NoError(t, err)
	o, _, err := order.NewOrder(kernel.NewUUID(), order.Draft{
		ClientID:   kernel.NewUUID(),
		DesignID:   kernel.NewUUID(),
		SupportID:  kernel.NewUUID(),
		Capability: "mug",
		ShipTo:     loc,
		Quantity:   2,
		UnitPrice:  900,
		Contact:    contact,
	}, createdAt)
	require.NoError(t, err)
	return o
}

func newProvider(t *testing.T, capacity int) *provider.Provider {
	t.Helper()
	loc, err := kernel.NewLocation("FR", "Occitanie", "Albi")
	require.NoError(t, err)
	caps, err := provider.NewCapabilitySet("mug")
	require.NoError(t, err)
	p, err := provider.NewProvider(kernel.NewUUID(), kernel.NewUUID(), "Céramique du Tarn", loc, caps, capacity)
	require.NoError(t, err)
	return p
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())

	kept := newOrder(t, now)
	dropped := newOrder(t, now)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, kept))
	require.NoError(t, uow.Commit(ctx))
	require.ErrorIs(t, uow.Rollback(ctx), memory.ErrInvalidTransaction)

	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, dropped))
	require.NoError(t, uow.Rollback(ctx))

	repo := factory.Create().OrderRepository()
	_, err := repo.Get(ctx, kept.ID())
	require.NoError(t, err)
	_, err = repo.Get(ctx, dropped.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrderRepository_CompareAndSwapStatus(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().OrderRepository()

	o := newOrder(t, now)
	require.NoError(t, repo.Add(ctx, o))

	first, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	_, err = first.Advance(order.ActorClient, order.Cancelled, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.CompareAndSwapStatus(ctx, first, order.Pending, 1))

	_, err = second.Assign(kernel.NewUUID(), now)
	require.NoError(t, err)
	err = repo.CompareAndSwapStatus(ctx, second, order.Pending, 1)
	require.ErrorIs(t, err, order.ErrStaleState)
	require.ErrorIs(t, err, errs.ErrVersionIsInvalid)

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, stored.Status())
	assert.Equal(t, 2, stored.Version())
	assert.Nil(t, stored.Provider())
}

func TestOrderRepository_HistoryAndListing(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().OrderRepository()

	older := newOrder(t, now.Add(-time.Hour))
	newer := newOrder(t, now)
	require.NoError(t, repo.Add(ctx, newer))
	require.NoError(t, repo.Add(ctx, older))

	rec, err := newer.Advance(order.ActorClient, order.Cancelled, "changed my mind", now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.CompareAndSwapStatus(ctx, newer, order.Pending, 1))
	require.NoError(t, repo.AppendHistory(ctx, rec))

	history, err := repo.History(ctx, newer.ID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "changed my mind", history[0].Note)

	_, err = repo.History(ctx, kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].IsEqual(older))

	all, err := repo.List(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].IsEqual(older))

	windowed, err := repo.List(ctx, ports.OrderFilter{CreatedFrom: now.Add(-time.Minute), CreatedTo: now.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.True(t, windowed[0].IsEqual(newer))

	cancelled, err := repo.List(ctx, ports.OrderFilter{Statuses: []order.Status{order.Cancelled}})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
}

func TestProviderRepository_Ledger(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().ProviderRepository()

	p := newProvider(t, 1)
	require.NoError(t, repo.Add(ctx, p))

	first, second := kernel.NewUUID(), kernel.NewUUID()
	require.NoError(t, repo.IncrementLoad(ctx, p.ID(), first))
	require.NoError(t, repo.IncrementLoad(ctx, p.ID(), first), "same order reserves once")
	require.ErrorIs(t, repo.IncrementLoad(ctx, p.ID(), second), provider.ErrCapacityExceeded)

	load, err := repo.GetLoad(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, load.Reserved())

	released, err := repo.DecrementLoad(ctx, p.ID(), first)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.DecrementLoad(ctx, p.ID(), first)
	require.NoError(t, err)
	assert.False(t, released)

	load, err = repo.GetLoad(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, load.Reserved())
}

func TestProviderRepository_ConcurrentIncrementNeverOverbooks(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())

	p := newProvider(t, 5)
	require.NoError(t, factory.Create().ProviderRepository().Add(ctx, p))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := factory.Create().ProviderRepository().IncrementLoad(ctx, p.ID(), kernel.NewUUID()); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
	load, err := factory.Create().ProviderRepository().GetLoad(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, load.Reserved())
}

func TestProviderRepository_ReconcileLoads(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	uow := factory.Create()

	p := newProvider(t, 3)
	require.NoError(t, uow.ProviderRepository().Add(ctx, p))

	assigned := newOrder(t, now)
	require.NoError(t, uow.OrderRepository().Add(ctx, assigned))
	_, err := assigned.Assign(p.ID(), now)
	require.NoError(t, err)
	require.NoError(t, uow.OrderRepository().CompareAndSwapStatus(ctx, assigned, order.Pending, 1))
	require.NoError(t, uow.ProviderRepository().IncrementLoad(ctx, p.ID(), assigned.ID()))

	// A reservation for an order that never left pending is stale.
	stale := newOrder(t, now)
	require.NoError(t, uow.OrderRepository().Add(ctx, stale))
	require.NoError(t, uow.ProviderRepository().IncrementLoad(ctx, p.ID(), stale.ID()))

	drifts, err := uow.ProviderRepository().ReconcileLoads(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, ports.LoadDrift{ProviderID: p.ID(), Stored: 2, Actual: 1}, drifts[0])

	drifts, err = uow.ProviderRepository().ReconcileLoads(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestProviderRepository_RatingDerivedFromReviews(t *testing.T) {
	ctx := t.Context()
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()

	p := newProvider(t, 3)
	require.NoError(t, uow.ProviderRepository().Add(ctx, p))

	for _, rating := range []int{5, 4} {
		o := newOrder(t, now)
		_, err := o.Assign(p.ID(), now)
		require.NoError(t, err)
		for _, st := range []order.Status{order.InProduction, order.Shipped, order.Delivered} {
			_, err = o.Advance(order.ActorProvider, st, "", now)
			require.NoError(t, err)
		}
		r, err := review.NewReview(kernel.NewUUID(), o, rating, "", now)
		require.NoError(t, err)
		require.NoError(t, uow.ReviewRepository().Add(ctx, r))

		dup, err := review.NewReview(kernel.NewUUID(), o, rating, "", now)
		require.NoError(t, err)
		require.ErrorIs(t, uow.ReviewRepository().Add(ctx, dup), review.ErrReviewExists)
	}

	got, err := uow.ProviderRepository().Get(ctx, p.ID())
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Rating(), 1e-9)

	mean, count, err := uow.ReviewRepository().AverageRating(ctx, p.ID())
	require.NoError(t, err)
	assert.InDelta(t, 4.5, mean, 1e-9)
	assert.Equal(t, 2, count)

	providerID := p.ID()
	listed, err := uow.ReviewRepository().List(ctx, ports.ReviewFilter{ProviderID: &providerID})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	other := kernel.NewUUID()
	listed, err = uow.ReviewRepository().List(ctx, ports.ReviewFilter{ProviderID: &other})
	require.NoError(t, err)
	assert.Empty(t, listed)
}
