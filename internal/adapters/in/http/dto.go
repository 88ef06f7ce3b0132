package http

import (
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

type Contact struct {
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	WhatsAppOptIn bool   `json:"whatsapp_opt_in"`
}

type NewOrder struct {
	ClientID      string                    `json:"client_id"`
	DesignID      string                    `json:"design_id"`
	DesignTitle   string                    `json:"design_title"`
	SupportID     string                    `json:"support_id"`
	Capability    string                    `json:"capability"`
	ShipTo        Location                  `json:"ship_to"`
	Quantity      int                       `json:"quantity"`
	UnitPrice     int64                     `json:"unit_price"`
	Customization order.CustomizationFields `json:"customization"`
	Contact       Contact                   `json:"contact"`
}

// OrderPlacement answers create and assign requests.
type OrderPlacement struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"`
	ProviderID *string `json:"provider_id,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

type StatusChange struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type Cancellation struct {
	Reason string `json:"reason,omitempty"`
}

type StatusResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type Order struct {
	ID            string                    `json:"id"`
	ClientID      string                    `json:"client_id"`
	DesignID      string                    `json:"design_id"`
	DesignTitle   string                    `json:"design_title"`
	SupportID     string                    `json:"support_id"`
	Capability    string                    `json:"capability"`
	ShipTo        Location                  `json:"ship_to"`
	ProviderID    *string                   `json:"provider_id,omitempty"`
	Quantity      int                       `json:"quantity"`
	UnitPrice     int64                     `json:"unit_price"`
	TotalPrice    int64                     `json:"total_price"`
	Customization order.CustomizationFields `json:"customization"`
	Status        string                    `json:"status"`
	Version       int                       `json:"version"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

type HistoryRecord struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Actor string    `json:"actor"`
	Note  string    `json:"note,omitempty"`
	At    time.Time `json:"at"`
}

type NewReview struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type Review struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ProviderID string    `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Attempt struct {
	Channel string    `json:"channel"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type Notification struct {
	ID          string    `json:"id"`
	TemplateKey string    `json:"template_key"`
	Delivered   bool      `json:"delivered"`
	Attempts    []Attempt `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewProvider struct {
	UserID          string   `json:"user_id"`
	BusinessName    string   `json:"business_name"`
	Location        Location `json:"location"`
	Capabilities    []string `json:"capabilities"`
	CapacityPerWeek int      `json:"capacity_per_week"`
}

type Provider struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	BusinessName    string   `json:"business_name"`
	Location        Location `json:"location"`
	Capabilities    []string `json:"capabilities"`
	CapacityPerWeek int      `json:"capacity_per_week"`
	Active          bool     `json:"active"`
}

type ProviderRating struct {
	ProviderID   string  `json:"provider_id"`
	BusinessName string  `json:"business_name"`
	Mean         float64 `json:"mean"`
	Count        int     `json:"count"`
}

func orderView(o queries.GetOrderQueryResponse) Order {
	view := Order{
		ID:          o.ID.String(),
		ClientID:    o.ClientID.String(),
		DesignID:    o.DesignID.String(),
		DesignTitle: o.DesignTitle,
		SupportID:   o.SupportID.String(),
		Capability:  o.Capability,
		ShipTo: Location{
			Country: o.ShipTo.Country(),
			Region:  o.ShipTo.Region(),
			City:    o.ShipTo.City(),
		},
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice.Minor(),
		TotalPrice:    o.TotalPrice.Minor(),
		Customization: o.Customization,
		Status:        o.DisplayStatus,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.ProviderID != nil {
		id := o.ProviderID.String()
		view.ProviderID = &id
	}
	return view
}
