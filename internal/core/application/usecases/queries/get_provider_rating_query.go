package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrGetProviderRatingQueryIsNotConstructed = errors.New(
	"GetProviderRatingQuery must be created via NewGetProviderRatingQuery constructor",
)

type GetProviderRatingQuery struct {
	providerID kernel.UUID
	guard      guard.ConstructorGuard
}

func NewGetProviderRatingQuery(providerID kernel.UUID) (GetProviderRatingQuery, error) {
	if err := providerID.Validate(); err != nil {
		return GetProviderRatingQuery{}, err
	}
	return GetProviderRatingQuery{providerID: providerID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetProviderRatingQuery) Validate() error {
	return q.guard.Validate(ErrGetProviderRatingQueryIsNotConstructed)
}

func (q GetProviderRatingQuery) ProviderID() kernel.UUID { return q.providerID }

type GetProviderRatingQueryResponse struct {
	ProviderID   kernel.UUID
	BusinessName string
	Mean         float64
	Count        int
}
