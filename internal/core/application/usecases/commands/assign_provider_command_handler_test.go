package commands_test

import (
	"errors"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type assignFixture struct {
	orderRepo    *MockOrderRepository
	providerRepo *MockProviderRepository
	uow          *MockUoW
	factory      *MockUoWFactory
	notifier     *MockStatusNotifier
	handler      commands.AssignProviderCommandHandler
}

func newAssignFixture(t *testing.T) *assignFixture {
	t.Helper()
	f := &assignFixture{
		orderRepo:    new(MockOrderRepository),
		providerRepo: new(MockProviderRepository),
		uow:          new(MockUoW),
		factory:      new(MockUoWFactory),
		notifier:     new(MockStatusNotifier),
	}
	f.factory.On("Create").Return(f.uow).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Maybe()
	f.uow.On("ProviderRepository").Return(f.providerRepo).Maybe()
	f.uow.On("Rollback", mock.Anything).Return(nil).Maybe()

	effects := commands.NewEffects(f.notifier, nil, nil, nil)
	f.handler = commands.NewAssignProviderCommandHandler(f.factory, matcher(t), effects, nil, nil)
	return f
}

func (f *assignFixture) assertExpectations(t *testing.T) {
	f.orderRepo.AssertExpectations(t)
	f.providerRepo.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.factory.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestAssignProviderCommandHandler_Handle_PicksBestAndReserves(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	bretagne := location(t, "FR", "Bretagne")
	o := pendingOrder(t, "mug")
	best := newProvider(t, "mug", bretagne, 5, 4.8)
	other := newProvider(t, "mug", bretagne, 5, 3.0)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
		f.providerRepo.On("GetActiveByCapability", ctx, provider.Capability("mug")).
			Return([]*provider.Provider{best, other}, nil).Once(),
		f.providerRepo.On("GetLoad", ctx, best.ID()).Return(load(t, 0, 5), nil).Once(),
		f.providerRepo.On("GetLoad", ctx, other.ID()).Return(load(t, 0, 5), nil).Once(),
		f.providerRepo.On("IncrementLoad", ctx, best.ID(), o.ID()).Return(nil).Once(),
		f.orderRepo.On("CompareAndSwapStatus", ctx, o, order.Pending, 1).Return(nil).Once(),
		f.orderRepo.On("AppendHistory", ctx, mock.MatchedBy(func(rec order.HistoryRecord) bool {
			return rec.From == order.Pending && rec.To == order.Assigned && rec.Actor == order.ActorMatchingEngine
		})).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.notifier.On("Notify", ctx, o, order.Assigned).Return().Once(),
	)

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Assigned, res.Status)
	require.NotNil(t, res.ProviderID)
	assert.True(t, res.ProviderID.IsEqual(best.ID()))
	assert.Positive(t, res.Score)
	f.assertExpectations(t)
}

func TestAssignProviderCommandHandler_Handle_RaceLostRetriesNextProvider(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	bretagne := location(t, "FR", "Bretagne")
	o := pendingOrder(t, "mug")
	first := newProvider(t, "mug", bretagne, 5, 5.0)
	second := newProvider(t, "mug", bretagne, 5, 2.0)
	providers := []*provider.Provider{first, second}

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.providerRepo.On("GetActiveByCapability", ctx, provider.Capability("mug")).Return(providers, nil).Twice()
	f.providerRepo.On("GetLoad", ctx, first.ID()).Return(load(t, 4, 5), nil).Once()
	f.providerRepo.On("GetLoad", ctx, first.ID()).Return(load(t, 5, 5), nil).Once()
	f.providerRepo.On("GetLoad", ctx, second.ID()).Return(load(t, 0, 5), nil).Twice()
	f.providerRepo.On("IncrementLoad", ctx, first.ID(), o.ID()).Return(provider.ErrCapacityExceeded).Once()
	f.providerRepo.On("IncrementLoad", ctx, second.ID(), o.ID()).Return(nil).Once()
	f.orderRepo.On("CompareAndSwapStatus", ctx, o, order.Pending, 1).Return(nil).Once()
	f.orderRepo.On("AppendHistory", ctx, mock.AnythingOfType("order.HistoryRecord")).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.notifier.On("Notify", ctx, o, order.Assigned).Return().Once()

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, res.ProviderID)
	assert.True(t, res.ProviderID.IsEqual(second.ID()))
	f.assertExpectations(t)
}

func TestAssignProviderCommandHandler_Handle_RaceLostTwiceLeavesPending(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	bretagne := location(t, "FR", "Bretagne")
	o := pendingOrder(t, "mug")
	first := newProvider(t, "mug", bretagne, 5, 5.0)
	second := newProvider(t, "mug", bretagne, 5, 2.0)
	providers := []*provider.Provider{first, second}

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.providerRepo.On("GetActiveByCapability", ctx, provider.Capability("mug")).Return(providers, nil).Twice()
	f.providerRepo.On("GetLoad", ctx, mock.AnythingOfType("kernel.UUID")).Return(load(t, 4, 5), nil)
	f.providerRepo.On("IncrementLoad", ctx, mock.AnythingOfType("kernel.UUID"), o.ID()).
		Return(provider.ErrCapacityExceeded).Twice()

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, services.ErrNoEligibleProvider)
	assert.Equal(t, order.Pending, res.Status)
	assert.Nil(t, res.ProviderID)
	assert.Equal(t, order.Pending, o.Status())
	f.orderRepo.AssertNotCalled(t, "CompareAndSwapStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignProviderCommandHandler_Handle_FullProviderIsNotEligible(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	o := pendingOrder(t, "t-shirt")
	full := newProvider(t, "t-shirt", location(t, "FR", "Bretagne"), 2, 5.0)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
		f.providerRepo.On("GetActiveByCapability", ctx, provider.Capability("t-shirt")).
			Return([]*provider.Provider{full}, nil).Once(),
		f.providerRepo.On("GetLoad", ctx, full.ID()).Return(load(t, 2, 2), nil).Once(),
	)

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	_, err = f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, services.ErrNoEligibleProvider)
	f.providerRepo.AssertNotCalled(t, "IncrementLoad", mock.Anything, mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestAssignProviderCommandHandler_Handle_AlreadyAssigned(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	providerID := kernel.NewUUID()
	o := orderAt(t, "mug", order.Assigned, providerID)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
	)

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, order.ErrOrderNotPending)
	assert.Equal(t, order.Assigned, res.Status)
	require.NotNil(t, res.ProviderID)
	assert.True(t, res.ProviderID.IsEqual(providerID))
	f.providerRepo.AssertNotCalled(t, "GetActiveByCapability", mock.Anything, mock.Anything)
}

func TestAssignProviderCommandHandler_Handle_StaleState(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)

	o := pendingOrder(t, "mug")
	p := newProvider(t, "mug", location(t, "FR", "Bretagne"), 5, 4.0)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
		f.providerRepo.On("GetActiveByCapability", ctx, provider.Capability("mug")).
			Return([]*provider.Provider{p}, nil).Once(),
		f.providerRepo.On("GetLoad", ctx, p.ID()).Return(load(t, 0, 5), nil).Once(),
		f.providerRepo.On("IncrementLoad", ctx, p.ID(), o.ID()).Return(nil).Once(),
		f.orderRepo.On("CompareAndSwapStatus", ctx, o, order.Pending, 1).Return(order.ErrStaleState).Once(),
	)

	cmd, err := commands.NewAssignProviderCommand(o.ID())
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, order.ErrStaleState)
	assert.Equal(t, order.Pending, res.Status)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignProviderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	f := newAssignFixture(t)
	f.uow.On("Begin", ctx).Return(errors.New("begin error")).Once()

	cmd, err := commands.NewAssignProviderCommand(kernel.NewUUID())
	require.NoError(t, err)

	_, err = f.handler.Handle(ctx, cmd)

	require.EqualError(t, err, "begin error")
}

func TestAssignProviderCommandHandler_Handle_ValidationError(t *testing.T) {
	factory := new(MockUoWFactory)
	handler := commands.NewAssignProviderCommandHandler(factory, matcher(t), commands.Effects{}, nil, nil)

	_, err := handler.Handle(t.Context(), commands.AssignProviderCommand{})

	require.ErrorIs(t, err, commands.ErrAssignProviderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
