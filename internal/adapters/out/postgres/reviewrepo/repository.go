// Package reviewrepo persists client reviews. One review per order is
// enforced by a unique index on order_id.
package reviewrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
	DesignID   uuid.UUID  `gorm:"type:uuid"`
	ProviderID *uuid.UUID `gorm:"type:uuid"`
	Rating     int        `gorm:"type:smallint"`
	Comment    string
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
}

func (ReviewDTO) TableName() string {
	return "reviews"
}

// GormReviewRepository implements ports.ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Add(ctx context.Context, aggregate *review.Review) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return review.ErrReviewExists
	}
	return nil
}

func (r *GormReviewRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*review.Review, error) {
	var dto ReviewDTO
	if err := r.db.WithContext(ctx).Take(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("review of order", orderID.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormReviewRepository) List(ctx context.Context, filter ports.ReviewFilter) ([]*review.Review, error) {
	query := r.db.WithContext(ctx).Model(&ReviewDTO{})
	if !filter.CreatedFrom.IsZero() {
		query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedTo.UTC())
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", filter.ProviderID.Bytes())
	}
	if filter.DesignID != nil {
		query = query.Where("design_id = ?", filter.DesignID.Bytes())
	}

	var dtos []ReviewDTO
	if err := query.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	reviews := make([]*review.Review, 0, len(dtos))
	for _, dto := range dtos {
		rv, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

func (r *GormReviewRepository) AverageRating(ctx context.Context, providerID kernel.UUID) (float64, int, error) {
	var row struct {
		Mean  float64
		Count int
	}
	if err := r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(AVG(rating), 0)::float8 AS mean, COUNT(*) AS count FROM reviews WHERE provider_id = ?",
		providerID.Bytes(),
	).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Mean, row.Count, nil
}

func fromDomain(rv *review.Review) ReviewDTO {
	var providerID *uuid.UUID
	if p := rv.ProviderID(); p != nil {
		raw := p.Bytes()
		providerID = &raw
	}
	return ReviewDTO{
		ID:         rv.ID().Bytes(),
		OrderID:    rv.OrderID().Bytes(),
		DesignID:   rv.DesignID().Bytes(),
		ProviderID: providerID,
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		CreatedAt:  rv.CreatedAt().UTC(),
	}
}

func toDomain(dto ReviewDTO) (*review.Review, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	designID, err := kernel.UUIDFromBytes(dto.DesignID[:])
	if err != nil {
		return nil, err
	}

	var providerID *kernel.UUID
	if dto.ProviderID != nil {
		p, err := kernel.UUIDFromBytes(dto.ProviderID[:])
		if err != nil {
			return nil, err
		}
		providerID = &p
	}

	return review.RestoreReview(id, orderID, designID, providerID, dto.Rating, dto.Comment, dto.CreatedAt)
}
