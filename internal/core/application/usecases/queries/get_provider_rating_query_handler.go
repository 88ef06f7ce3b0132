package queries

import (
	"context"

	"fulfillment/internal/core/ports"
)

// GetProviderRatingQueryHandler reports a provider's mean review score; a
// provider without reviews rates 0.
type GetProviderRatingQueryHandler struct {
	providers ports.ProviderRepository
	reviews   ports.ReviewRepository
}

func NewGetProviderRatingQueryHandler(
	providers ports.ProviderRepository,
	reviews ports.ReviewRepository,
) GetProviderRatingQueryHandler {
	return GetProviderRatingQueryHandler{providers: providers, reviews: reviews}
}

func (h GetProviderRatingQueryHandler) Handle(
	ctx context.Context,
	query GetProviderRatingQuery,
) (GetProviderRatingQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetProviderRatingQueryResponse{}, err
	}

	p, err := h.providers.Get(ctx, query.ProviderID())
	if err != nil {
		return GetProviderRatingQueryResponse{}, err
	}

	mean, count, err := h.reviews.AverageRating(ctx, p.ID())
	if err != nil {
		return GetProviderRatingQueryResponse{}, err
	}

	return GetProviderRatingQueryResponse{
		ProviderID:   p.ID(),
		BusinessName: p.BusinessName(),
		Mean:         mean,
		Count:        count,
	}, nil
}
