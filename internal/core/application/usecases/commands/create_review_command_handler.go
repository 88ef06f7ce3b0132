package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"

	"go.uber.org/zap"
)

// CreateReviewCommandHandler records the client's rating of a delivered order.
type CreateReviewCommandHandler struct {
	uowFactory ReviewUoWFactory
	log        *zap.Logger
}

func NewCreateReviewCommandHandler(uowFactory ReviewUoWFactory, log *zap.Logger) CreateReviewCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return CreateReviewCommandHandler{uowFactory: uowFactory, log: log}
}

// Handle fails with review.ErrOrderNotDelivered or review.ErrReviewExists
// when the order cannot take a review.
func (h CreateReviewCommandHandler) Handle(ctx context.Context, cmd CreateReviewCommand) (*review.Review, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	reviews := uow.ReviewRepository()
	existing, err := reviews.GetByOrder(ctx, o.ID())
	switch {
	case err == nil && existing != nil:
		return nil, review.ErrReviewExists
	case err != nil && !errors.Is(err, errs.ErrObjectNotFound):
		return nil, err
	}

	r, err := review.NewReview(cmd.ReviewID(), o, cmd.Rating(), cmd.Comment(), time.Now())
	if err != nil {
		return nil, err
	}

	if err = reviews.Add(ctx, r); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.log.Info("order reviewed",
		zap.Stringer("order_id", r.OrderID()),
		zap.Int("rating", r.Rating()))
	return r, nil
}
