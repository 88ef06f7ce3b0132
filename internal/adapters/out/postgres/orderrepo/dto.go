// Package orderrepo persists order aggregates and their audit trail in
// postgres. It converts between domain snapshots and gorm rows.
package orderrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"

	"github.com/google/uuid"
)

// OrderDTO is the row shape of the orders table. Timestamps are owned by the
// domain, so gorm's automatic tracking is disabled.
type OrderDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID      uuid.UUID `gorm:"type:uuid"`
	DesignID      uuid.UUID `gorm:"type:uuid"`
	DesignTitle   string
	SupportID     uuid.UUID `gorm:"type:uuid"`
	Capability    string
	ShipTo        LocationDTO `gorm:"embedded;embeddedPrefix:ship_to_"`
	ProviderID    *uuid.UUID  `gorm:"type:uuid"`
	Quantity      int
	UnitPrice     int64
	TotalPrice    int64
	Customization string     `gorm:"type:jsonb"`
	Contact       ContactDTO `gorm:"embedded;embeddedPrefix:contact_"`
	Status        int        `gorm:"type:smallint"`
	Version       int
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO is the embedded ship-to address.
type LocationDTO struct {
	Country string
	Region  string
	City    string
}

// ContactDTO is the embedded notification contact snapshot.
type ContactDTO struct {
	Email         string
	Phone         string
	WhatsappOptIn bool
}

// HistoryDTO is one row of order_history. Rows are only ever inserted.
type HistoryDTO struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid"`
	FromStatus int       `gorm:"type:smallint"`
	ToStatus   int       `gorm:"type:smallint"`
	Actor      int       `gorm:"type:smallint"`
	Note       string
	At         time.Time
}

func (HistoryDTO) TableName() string {
	return "order_history"
}

func fromDomain(aggregate *order.Order) (OrderDTO, error) {
	snap := aggregate.Snapshot()

	customization, err := snap.Customization.MarshalJSON()
	if err != nil {
		return OrderDTO{}, err
	}

	var providerID *uuid.UUID
	if snap.ProviderID != nil {
		raw := snap.ProviderID.Bytes()
		providerID = &raw
	}

	return OrderDTO{
		ID:          snap.ID.Bytes(),
		ClientID:    snap.ClientID.Bytes(),
		DesignID:    snap.DesignID.Bytes(),
		DesignTitle: snap.DesignTitle,
		SupportID:   snap.SupportID.Bytes(),
		Capability:  snap.Capability.String(),
		ShipTo: LocationDTO{
			Country: snap.ShipTo.Country(),
			Region:  snap.ShipTo.Region(),
			City:    snap.ShipTo.City(),
		},
		ProviderID:    providerID,
		Quantity:      snap.Quantity,
		UnitPrice:     int64(snap.UnitPrice),
		TotalPrice:    int64(snap.TotalPrice),
		Customization: string(customization),
		Contact: ContactDTO{
			Email:         snap.Contact.Email(),
			Phone:         snap.Contact.Phone(),
			WhatsappOptIn: snap.Contact.WhatsAppOptIn(),
		},
		Status:    int(snap.Status),
		Version:   snap.Version,
		CreatedAt: snap.CreatedAt.UTC(),
		UpdatedAt: snap.UpdatedAt.UTC(),
	}, nil
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	snap := order.Snapshot{
		DesignTitle: dto.DesignTitle,
		Capability:  provider.Capability(dto.Capability),
		Quantity:    dto.Quantity,
		UnitPrice:   kernel.Money(dto.UnitPrice),
		TotalPrice:  kernel.Money(dto.TotalPrice),
		Status:      order.Status(dto.Status),
		Version:     dto.Version,
		CreatedAt:   dto.CreatedAt.UTC(),
		UpdatedAt:   dto.UpdatedAt.UTC(),
	}

	if err := errors.Join(
		restoreID(&snap.ID, dto.ID),
		restoreID(&snap.ClientID, dto.ClientID),
		restoreID(&snap.DesignID, dto.DesignID),
		restoreID(&snap.SupportID, dto.SupportID),
	); err != nil {
		return nil, err
	}

	if dto.ProviderID != nil {
		var providerID kernel.UUID
		if err := restoreID(&providerID, *dto.ProviderID); err != nil {
			return nil, err
		}
		snap.ProviderID = &providerID
	}

	var err error
	if snap.ShipTo, err = kernel.NewLocation(dto.ShipTo.Country, dto.ShipTo.Region, dto.ShipTo.City); err != nil {
		return nil, err
	}
	if snap.Contact, err = order.NewContact(dto.Contact.Email, dto.Contact.Phone, dto.Contact.WhatsappOptIn); err != nil {
		return nil, err
	}
	if snap.Customization, err = order.CustomizationFromJSON([]byte(dto.Customization)); err != nil {
		return nil, err
	}

	return order.RestoreOrder(snap)
}

func restoreID(dst *kernel.UUID, src uuid.UUID) error {
	id, err := kernel.UUIDFromBytes(src[:])
	if err != nil {
		return err
	}
	*dst = id
	return nil
}

func historyFromDomain(record order.HistoryRecord) HistoryDTO {
	return HistoryDTO{
		OrderID:    record.OrderID.Bytes(),
		FromStatus: int(record.From),
		ToStatus:   int(record.To),
		Actor:      int(record.Actor),
		Note:       record.Note,
		At:         record.At.UTC(),
	}
}

func historyToDomain(dto HistoryDTO) (order.HistoryRecord, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.HistoryRecord{}, err
	}
	return order.HistoryRecord{
		OrderID: orderID,
		From:    order.Status(dto.FromStatus),
		To:      order.Status(dto.ToStatus),
		Actor:   order.Actor(dto.Actor),
		Note:    dto.Note,
		At:      dto.At.UTC(),
	}, nil
}
