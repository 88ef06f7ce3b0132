package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

// DisplayAwaitingAssignment is shown for pending orders: they exist and are
// waiting for a provider with free capacity.
const DisplayAwaitingAssignment = "awaiting_assignment"

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

type GetOrderQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// GetOrderQueryResponse is the client-facing order view.
type GetOrderQueryResponse struct {
	ID            kernel.UUID
	ClientID      kernel.UUID
	DesignID      kernel.UUID
	DesignTitle   string
	SupportID     kernel.UUID
	Capability    string
	ShipTo        kernel.Location
	ProviderID    *kernel.UUID
	Quantity      int
	UnitPrice     kernel.Money
	TotalPrice    kernel.Money
	Customization order.CustomizationFields
	Status        order.Status
	// DisplayStatus is Status, except pending reads as awaiting_assignment.
	DisplayStatus string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func orderResponse(o *order.Order) GetOrderQueryResponse {
	display := o.Status().String()
	if o.Status() == order.Pending {
		display = DisplayAwaitingAssignment
	}
	return GetOrderQueryResponse{
		ID:            o.ID(),
		ClientID:      o.ClientID(),
		DesignID:      o.DesignID(),
		DesignTitle:   o.DesignTitle(),
		SupportID:     o.SupportID(),
		Capability:    o.RequiredCapability().String(),
		ShipTo:        o.ShipTo(),
		ProviderID:    o.Provider(),
		Quantity:      o.Quantity(),
		UnitPrice:     o.UnitPrice(),
		TotalPrice:    o.TotalPrice(),
		Customization: o.Customization().Fields(),
		Status:        o.Status(),
		DisplayStatus: display,
		Version:       o.Version(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}
}
