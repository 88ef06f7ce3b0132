package order

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// HistoryRecord is one entry of an order's audit trail. The first record of
// every order has From == Unknown and marks its creation.
type HistoryRecord struct {
	OrderID kernel.UUID
	From    Status
	To      Status
	Actor   Actor
	Note    string
	At      time.Time
}

// IsCreation reports whether the record marks the order's creation.
func (h HistoryRecord) IsCreation() bool {
	return h.From == Unknown
}
