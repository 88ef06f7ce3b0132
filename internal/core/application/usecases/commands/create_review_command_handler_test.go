package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewMocks() (*MockOrderRepository, *MockReviewRepository, *MockUoW, *MockReviewUoWFactory) {
	orderRepo := new(MockOrderRepository)
	reviewRepo := new(MockReviewRepository)
	uow := new(MockUoW)
	factory := new(MockReviewUoWFactory)

	factory.On("Create").Return(uow).Once()
	uow.On("OrderRepository").Return(orderRepo).Maybe()
	uow.On("ReviewRepository").Return(reviewRepo).Maybe()
	uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	return orderRepo, reviewRepo, uow, factory
}

func TestCreateReviewCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	orderRepo, reviewRepo, uow, factory := newReviewMocks()

	providerID := kernel.NewUUID()
	o := orderAt(t, "mug", order.Delivered, providerID)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
		reviewRepo.On("GetByOrder", ctx, o.ID()).Return(nil, errs.NewObjectNotFoundError("review of order", o.ID())).Once(),
		reviewRepo.On("Add", ctx, mock.AnythingOfType("*review.Review")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
	)

	cmd, err := commands.NewCreateReviewCommand(kernel.NewUUID(), o.ID(), 5, "Lovely print")
	require.NoError(t, err)

	r, err := commands.NewCreateReviewCommandHandler(factory, nil).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 5, r.Rating())
	require.NotNil(t, r.ProviderID())
	assert.True(t, r.ProviderID().IsEqual(providerID))
	assert.True(t, r.DesignID().IsEqual(o.DesignID()))
	reviewRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestCreateReviewCommandHandler_Handle_Rejections(t *testing.T) {
	t.Run("order not delivered", func(t *testing.T) {
		ctx := t.Context()
		orderRepo, reviewRepo, uow, factory := newReviewMocks()
		o := orderAt(t, "mug", order.Shipped, kernel.NewUUID())

		uow.On("Begin", ctx).Return(nil).Once()
		orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
		reviewRepo.On("GetByOrder", ctx, o.ID()).Return(nil, errs.NewObjectNotFoundError("review of order", o.ID())).Once()

		cmd, err := commands.NewCreateReviewCommand(kernel.NewUUID(), o.ID(), 4, "")
		require.NoError(t, err)

		_, err = commands.NewCreateReviewCommandHandler(factory, nil).Handle(ctx, cmd)

		require.ErrorIs(t, err, review.ErrOrderNotDelivered)
		reviewRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("order already reviewed", func(t *testing.T) {
		ctx := t.Context()
		orderRepo, reviewRepo, uow, factory := newReviewMocks()
		o := orderAt(t, "mug", order.Delivered, kernel.NewUUID())
		existing, err := review.NewReview(kernel.NewUUID(), o, 3, "", now)
		require.NoError(t, err)

		uow.On("Begin", ctx).Return(nil).Once()
		orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
		reviewRepo.On("GetByOrder", ctx, o.ID()).Return(existing, nil).Once()

		cmd, err := commands.NewCreateReviewCommand(kernel.NewUUID(), o.ID(), 4, "")
		require.NoError(t, err)

		_, err = commands.NewCreateReviewCommandHandler(factory, nil).Handle(ctx, cmd)

		require.ErrorIs(t, err, review.ErrReviewExists)
		reviewRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})
}

func TestNewCreateReviewCommand_RatingRange(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		_, err := commands.NewCreateReviewCommand(kernel.NewUUID(), kernel.NewUUID(), rating, "")
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	}
}
