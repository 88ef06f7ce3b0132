package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a repository bound to db, which may be a
// transaction handle.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a new order row.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectAlreadyExistsError("order", aggregate.ID().String())
	}
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// CompareAndSwapStatus issues a single conditional UPDATE. Zero affected rows
// means another writer moved the order first, or the order does not exist.
func (r *GormOrderRepository) CompareAndSwapStatus(
	ctx context.Context,
	aggregate *order.Order,
	expectedStatus order.Status,
	expectedVersion int,
) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ? AND version = ?", dto.ID, int(expectedStatus), expectedVersion).
		Updates(map[string]any{
			"status":      dto.Status,
			"provider_id": dto.ProviderID,
			"version":     dto.Version,
			"updated_at":  dto.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if err := r.exists(ctx, aggregate.ID()); err != nil {
		return err
	}
	return fmt.Errorf("%w: order %s is no longer %s v%d", order.ErrStaleState,
		aggregate.ID(), expectedStatus, expectedVersion)
}

// AppendHistory inserts one audit record.
func (r *GormOrderRepository) AppendHistory(ctx context.Context, record order.HistoryRecord) error {
	if err := record.OrderID.Validate(); err != nil {
		return err
	}
	if err := r.exists(ctx, record.OrderID); err != nil {
		return err
	}

	dto := historyFromDomain(record)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// History returns the audit trail oldest first.
func (r *GormOrderRepository) History(ctx context.Context, id kernel.UUID) ([]order.HistoryRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}

	var dtos []HistoryDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id.Bytes()).
		Order("at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	records := make([]order.HistoryRecord, 0, len(dtos))
	for _, dto := range dtos {
		record, err := historyToDomain(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// List returns orders matching filter ordered by creation time.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).Model(&OrderDTO{})

	if !filter.CreatedFrom.IsZero() {
		query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedTo.UTC())
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]int, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, int(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", filter.ProviderID.Bytes())
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", filter.ClientID.Bytes())
	}

	return r.find(query)
}

// ListPending returns the oldest pending orders first.
func (r *GormOrderRepository) ListPending(ctx context.Context, limit int) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).Where("status = ?", int(order.Pending))
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := query.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *GormOrderRepository) exists(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return nil
}
