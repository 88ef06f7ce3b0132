// Package providerrepo persists providers, their weekly capacity counters and
// the per-order reservations that back them.
package providerrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/provider"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProviderDTO is the row shape of the providers table. Rating is not stored;
// it is computed from reviews by the select queries.
type ProviderDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid"`
	BusinessName    string
	Location        LocationDTO    `gorm:"embedded;embeddedPrefix:location_"`
	Capabilities    pq.StringArray `gorm:"type:text[]"`
	CapacityPerWeek int
	ReservedCount   int
	Active          bool
	CreatedAt       time.Time
	Rating          float64 `gorm:"->;-:migration"`
}

func (ProviderDTO) TableName() string {
	return "providers"
}

// LocationDTO is the embedded provider location.
type LocationDTO struct {
	Country string
	Region  string
	City    string
}

// ReservationDTO is one slot taken by an order. Released rows are kept for
// reconciliation and audit.
type ReservationDTO struct {
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID uuid.UUID `gorm:"type:uuid"`
	Released   bool
	ReservedAt time.Time
	ReleasedAt *time.Time
}

func (ReservationDTO) TableName() string {
	return "capacity_reservations"
}

func fromDomain(p *provider.Provider) ProviderDTO {
	return ProviderDTO{
		ID:           p.ID().Bytes(),
		UserID:       p.UserID().Bytes(),
		BusinessName: p.BusinessName(),
		Location: LocationDTO{
			Country: p.Location().Country(),
			Region:  p.Location().Region(),
			City:    p.Location().City(),
		},
		Capabilities:    pq.StringArray(p.Capabilities().Strings()),
		CapacityPerWeek: p.CapacityPerWeek(),
		Active:          p.IsActive(),
	}
}

func toDomain(dto ProviderDTO) (*provider.Provider, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}
	loc, err := kernel.NewLocation(dto.Location.Country, dto.Location.Region, dto.Location.City)
	if err != nil {
		return nil, err
	}
	caps, err := provider.NewCapabilitySet(dto.Capabilities...)
	if err != nil {
		return nil, err
	}

	return provider.RestoreProvider(id, userID, dto.BusinessName, loc, caps, dto.CapacityPerWeek, dto.Active, dto.Rating)
}
