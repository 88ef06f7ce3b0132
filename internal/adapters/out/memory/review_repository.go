package memory

import (
	"context"
	"slices"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type ReviewRepository struct {
	uow *UnitOfWork
}

func (r *ReviewRepository) Add(ctx context.Context, aggregate *review.Review) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.run(func(s *state) error {
		if _, ok := s.reviewByOrder[aggregate.OrderID()]; ok {
			return review.ErrReviewExists
		}
		if _, ok := s.reviews[aggregate.ID()]; ok {
			return errs.NewObjectAlreadyExistsError("review", aggregate.ID().String())
		}
		s.reviews[aggregate.ID()] = aggregate
		s.reviewByOrder[aggregate.OrderID()] = aggregate.ID()
		return nil
	})
}

func (r *ReviewRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*review.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *review.Review
	err := r.uow.run(func(s *state) error {
		id, ok := s.reviewByOrder[orderID]
		if !ok {
			return errs.NewObjectNotFoundError("review of order", orderID.String())
		}
		out = s.reviews[id]
		return nil
	})
	return out, err
}

func (r *ReviewRepository) List(ctx context.Context, filter ports.ReviewFilter) ([]*review.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*review.Review
	_ = r.uow.run(func(s *state) error {
		for _, rv := range s.reviews {
			if reviewMatches(rv, filter) {
				out = append(out, rv)
			}
		}
		return nil
	})

	slices.SortFunc(out, func(a, b *review.Review) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return compareIDs(a.ID(), b.ID())
	})
	return out, nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, providerID kernel.UUID) (float64, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	var (
		mean  float64
		count int
	)
	_ = r.uow.run(func(s *state) error {
		mean, count = s.averageRating(providerID)
		return nil
	})
	return mean, count, nil
}

func reviewMatches(rv *review.Review, f ports.ReviewFilter) bool {
	if !inRange(rv.CreatedAt(), f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if f.ProviderID != nil {
		p := rv.ProviderID()
		if p == nil || !p.IsEqual(*f.ProviderID) {
			return false
		}
	}
	if f.DesignID != nil && !rv.DesignID().IsEqual(*f.DesignID) {
		return false
	}
	return true
}
