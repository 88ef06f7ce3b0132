package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
)

// ReviewFilter narrows ReviewRepository.List. Zero fields do not filter.
type ReviewFilter struct {
	CreatedFrom time.Time
	CreatedTo   time.Time
	ProviderID  *kernel.UUID
	DesignID    *kernel.UUID
}

type ReviewRepository interface {
	// Add stores a review; a second review for the same order yields
	// review.ErrReviewExists.
	Add(ctx context.Context, aggregate *review.Review) error

	GetByOrder(ctx context.Context, orderID kernel.UUID) (*review.Review, error)

	List(ctx context.Context, filter ReviewFilter) ([]*review.Review, error)

	// AverageRating returns the provider's mean rating and review count;
	// the mean is 0 when there are no reviews.
	AverageRating(ctx context.Context, providerID kernel.UUID) (mean float64, count int, err error)
}
