package queries

import (
	"context"

	"fulfillment/internal/core/ports"
)

type GetOrderHistoryQueryHandler struct {
	orders ports.OrderRepository
}

func NewGetOrderHistoryQueryHandler(orders ports.OrderRepository) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{orders: orders}
}

// Handle returns the order's transitions oldest first.
func (h GetOrderHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetOrderHistoryQuery,
) ([]GetOrderHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	records, err := h.orders.History(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	out := make([]GetOrderHistoryQueryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, GetOrderHistoryQueryResponse{
			From:  rec.From,
			To:    rec.To,
			Actor: rec.Actor,
			Note:  rec.Note,
			At:    rec.At,
		})
	}
	return out, nil
}
