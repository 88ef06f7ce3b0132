package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateReviewCommandIsNotConstructed = errors.New(
	"CreateReviewCommand must be created via NewCreateReviewCommand constructor",
)

type CreateReviewCommand struct { //nolint:recvcheck //using for validation
	reviewID kernel.UUID
	orderID  kernel.UUID
	rating   int
	comment  string

	guard guard.ConstructorGuard
}

func NewCreateReviewCommand(reviewID, orderID kernel.UUID, rating int, comment string) (CreateReviewCommand, error) {
	var ratingErr error
	if rating < review.MinRating || rating > review.MaxRating {
		ratingErr = errs.NewValueIsOutOfRangeError("rating", rating, review.MinRating, review.MaxRating)
	}
	if err := errors.Join(reviewID.Validate(), orderID.Validate(), ratingErr); err != nil {
		return CreateReviewCommand{}, err
	}

	return CreateReviewCommand{
		reviewID: reviewID,
		orderID:  orderID,
		rating:   rating,
		comment:  comment,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c CreateReviewCommand) Validate() error {
	return c.guard.Validate(ErrCreateReviewCommandIsNotConstructed)
}

func (c CreateReviewCommand) ReviewID() kernel.UUID { return c.reviewID }
func (c CreateReviewCommand) OrderID() kernel.UUID  { return c.orderID }
func (c CreateReviewCommand) Rating() int           { return c.rating }
func (c CreateReviewCommand) Comment() string       { return c.comment }
