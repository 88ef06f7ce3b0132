package providerrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const selectProviders = `
SELECT p.id, p.user_id, p.business_name,
       p.location_country, p.location_region, p.location_city,
       p.capabilities, p.capacity_per_week, p.reserved_count, p.active, p.created_at,
       COALESCE(AVG(rv.rating), 0)::float8 AS rating
FROM providers p
LEFT JOIN reviews rv ON rv.provider_id = p.id`

// GormProviderRepository implements ports.ProviderRepository using GORM.
// The reserved counter is only moved by conditional UPDATEs so concurrent
// reservations cannot overshoot capacity.
type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) Add(ctx context.Context, aggregate *provider.Provider) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectAlreadyExistsError("provider", aggregate.ID().String())
	}
	return nil
}

func (r *GormProviderRepository) Get(ctx context.Context, id kernel.UUID) (*provider.Provider, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dtos []ProviderDTO
	if err := r.db.WithContext(ctx).
		Raw(selectProviders+" WHERE p.id = ? GROUP BY p.id", id.Bytes()).
		Scan(&dtos).Error; err != nil {
		return nil, err
	}
	if len(dtos) == 0 {
		return nil, errs.NewObjectNotFoundError("provider", id.String())
	}
	return toDomain(dtos[0])
}

func (r *GormProviderRepository) GetActiveByCapability(
	ctx context.Context,
	capability provider.Capability,
) ([]*provider.Provider, error) {
	if err := capability.Validate(); err != nil {
		return nil, err
	}

	var dtos []ProviderDTO
	if err := r.db.WithContext(ctx).
		Raw(selectProviders+" WHERE p.active AND ? = ANY(p.capabilities) GROUP BY p.id ORDER BY p.id", capability.String()).
		Scan(&dtos).Error; err != nil {
		return nil, err
	}

	providers := make([]*provider.Provider, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func (r *GormProviderRepository) GetLoad(ctx context.Context, id kernel.UUID) (provider.Load, error) {
	if err := id.Validate(); err != nil {
		return provider.Load{}, err
	}

	var dto ProviderDTO
	if err := r.db.WithContext(ctx).
		Select("reserved_count", "capacity_per_week").
		Take(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return provider.Load{}, errs.NewObjectNotFoundError("provider", id.String())
		}
		return provider.Load{}, err
	}
	return provider.NewLoad(dto.ReservedCount, dto.CapacityPerWeek)
}

// IncrementLoad is idempotent for an order already holding a slot at the
// same provider.
func (r *GormProviderRepository) IncrementLoad(ctx context.Context, providerID, orderID kernel.UUID) error {
	db := r.db.WithContext(ctx)

	var open ReservationDTO
	err := db.Where("order_id = ? AND NOT released", orderID.Bytes()).Take(&open).Error
	switch {
	case err == nil:
		if open.ProviderID == providerID.Bytes() {
			return nil
		}
		return errs.NewObjectAlreadyExistsError("reservation", orderID.String())
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	result := db.Exec(
		"UPDATE providers SET reserved_count = reserved_count + 1 WHERE id = ? AND reserved_count < capacity_per_week",
		providerID.Bytes(),
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.exists(ctx, providerID); err != nil {
			return err
		}
		return fmt.Errorf("%w: provider %s", provider.ErrCapacityExceeded, providerID)
	}

	reservation := ReservationDTO{
		OrderID:    orderID.Bytes(),
		ProviderID: providerID.Bytes(),
		ReservedAt: time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"provider_id": reservation.ProviderID,
			"released":    false,
			"reserved_at": reservation.ReservedAt,
			"released_at": nil,
		}),
	}).Create(&reservation).Error
}

func (r *GormProviderRepository) DecrementLoad(ctx context.Context, providerID, orderID kernel.UUID) (bool, error) {
	if err := r.exists(ctx, providerID); err != nil {
		return false, err
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&ReservationDTO{}).
		Where("order_id = ? AND provider_id = ? AND NOT released", orderID.Bytes(), providerID.Bytes()).
		Updates(map[string]any{"released": true, "released_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if err := db.Exec(
		"UPDATE providers SET reserved_count = GREATEST(reserved_count - 1, 0) WHERE id = ?",
		providerID.Bytes(),
	).Error; err != nil {
		return false, err
	}
	return true, nil
}

type loadRow struct {
	ID     uuid.UUID
	Stored int
	Actual int
}

// ReconcileLoads locks every provider row, closes reservations of orders that
// no longer hold capacity, and rewrites the counters that drifted.
func (r *GormProviderRepository) ReconcileLoads(ctx context.Context) ([]ports.LoadDrift, error) {
	db := r.db.WithContext(ctx)

	var locked []uuid.UUID
	if err := db.Model(&ProviderDTO{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("id").
		Pluck("id", &locked).Error; err != nil {
		return nil, err
	}

	if err := db.Exec(`
UPDATE capacity_reservations r
SET released = true, released_at = ?
FROM orders o
WHERE r.order_id = o.id AND NOT r.released AND o.status NOT IN ?`,
		time.Now().UTC(), holdingStatuses(),
	).Error; err != nil {
		return nil, err
	}

	var rows []loadRow
	if err := db.Raw(`
SELECT p.id, p.reserved_count AS stored, COUNT(r.order_id) AS actual
FROM providers p
LEFT JOIN capacity_reservations r ON r.provider_id = p.id AND NOT r.released
GROUP BY p.id
HAVING p.reserved_count <> COUNT(r.order_id)
ORDER BY p.id`).Scan(&rows).Error; err != nil {
		return nil, err
	}

	drifts := make([]ports.LoadDrift, 0, len(rows))
	for _, row := range rows {
		if err := db.Model(&ProviderDTO{}).Where("id = ?", row.ID).Update("reserved_count", row.Actual).Error; err != nil {
			return nil, err
		}
		id, err := kernel.UUIDFromBytes(row.ID[:])
		if err != nil {
			return nil, err
		}
		drifts = append(drifts, ports.LoadDrift{ProviderID: id, Stored: row.Stored, Actual: row.Actual})
	}
	return drifts, nil
}

func (r *GormProviderRepository) exists(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ProviderDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("provider", id.String())
	}
	return nil
}

func holdingStatuses() []int {
	var out []int
	for s := order.Pending; s <= order.Refunded; s++ {
		if s.HoldsCapacity() {
			out = append(out, int(s))
		}
	}
	return out
}
