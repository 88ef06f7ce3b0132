package services_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, s string) kernel.UUID {
	t.Helper()
	id, err := kernel.UUIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestAnalytics_RevenueByPeriod(t *testing.T) {
	client := kernel.NewUUID()
	design := kernel.NewUUID()
	fact := func(status order.Status, total kernel.Money, qty int, at time.Time) services.OrderFact {
		return services.OrderFact{
			OrderID: kernel.NewUUID(), ClientID: client, DesignID: design,
			Status: status, Quantity: qty, TotalPrice: total, CreatedAt: at,
		}
	}

	orders := []services.OrderFact{
		fact(order.Delivered, 1000, 1, time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)),
		fact(order.Pending, 500, 2, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)),
		// 2026-02-01 00:30 at UTC+1 is still January in UTC.
		fact(order.Assigned, 700, 1, time.Date(2026, 2, 1, 0, 30, 0, 0, time.FixedZone("UTC+1", 3600))),
		fact(order.Shipped, 2000, 4, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)),
		fact(order.Cancelled, 9999, 1, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)),
		fact(order.Refunded, 8888, 1, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	got := services.NewAnalytics().RevenueByPeriod(orders, services.Period{})

	assert.Equal(t, []services.RevenueBucket{
		{Period: "2026-01", Revenue: 2200, Orders: 3, Units: 4},
		{Period: "2026-02", Revenue: 2000, Orders: 1, Units: 4},
	}, got)

	window := services.Period{From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	got = services.NewAnalytics().RevenueByPeriod(orders, window)
	assert.Equal(t, []services.RevenueBucket{{Period: "2026-02", Revenue: 2000, Orders: 1, Units: 4}}, got)

	assert.Empty(t, services.NewAnalytics().RevenueByPeriod(nil, services.Period{}))
}

func TestAnalytics_TopN(t *testing.T) {
	d1 := mustID(t, "00000000-0000-0000-0000-0000000000d1")
	d2 := mustID(t, "00000000-0000-0000-0000-0000000000d2")
	d3 := mustID(t, "00000000-0000-0000-0000-0000000000d3")
	p1 := mustID(t, "00000000-0000-0000-0000-0000000000f1")

	fact := func(design kernel.UUID, provider *kernel.UUID, status order.Status, qty int, total kernel.Money) services.OrderFact {
		return services.OrderFact{
			OrderID: kernel.NewUUID(), ClientID: kernel.NewUUID(), DesignID: design, ProviderID: provider,
			Status: status, Quantity: qty, TotalPrice: total, CreatedAt: now,
		}
	}
	orders := []services.OrderFact{
		fact(d1, &p1, order.Delivered, 1, 5000),
		fact(d2, &p1, order.Assigned, 5, 1000),
		fact(d2, nil, order.Pending, 1, 200),
		fact(d3, nil, order.Pending, 6, 600),
		fact(d3, nil, order.Cancelled, 50, 99999),
	}
	a := services.NewAnalytics()

	t.Run("by sales", func(t *testing.T) {
		got, err := a.TopN(orders, services.DimensionDesigns, services.MetricSales, 0, services.Period{})
		require.NoError(t, err)
		// d2 and d3 tie on 6 units; key ascending breaks the tie.
		assert.Equal(t, []services.Ranked{
			{Key: d2.String(), Value: 6},
			{Key: d3.String(), Value: 6},
			{Key: d1.String(), Value: 1},
		}, got)
	})

	t.Run("by revenue limited to one", func(t *testing.T) {
		got, err := a.TopN(orders, services.DimensionDesigns, services.MetricRevenue, 1, services.Period{})
		require.NoError(t, err)
		assert.Equal(t, []services.Ranked{{Key: d1.String(), Value: 5000}}, got)
	})

	t.Run("providers skip unassigned orders", func(t *testing.T) {
		got, err := a.TopN(orders, services.DimensionProviders, services.MetricOrders, 10, services.Period{})
		require.NoError(t, err)
		assert.Equal(t, []services.Ranked{{Key: p1.String(), Value: 2}}, got)
	})

	t.Run("unknown metric or dimension", func(t *testing.T) {
		_, err := a.TopN(orders, "creators", services.MetricOrders, 1, services.Period{})
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		_, err = a.TopN(orders, services.DimensionClients, "likes", 1, services.Period{})
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("deterministic for shuffled input", func(t *testing.T) {
		reversed := make([]services.OrderFact, len(orders))
		for i, f := range orders {
			reversed[len(orders)-1-i] = f
		}
		want, err := a.TopN(orders, services.DimensionDesigns, services.MetricOrders, 0, services.Period{})
		require.NoError(t, err)
		got, err := a.TopN(reversed, services.DimensionDesigns, services.MetricOrders, 0, services.Period{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestAnalytics_ProviderRating(t *testing.T) {
	p := kernel.NewUUID()
	other := kernel.NewUUID()
	a := services.NewAnalytics()

	empty := a.ProviderRating(nil, p)
	assert.Zero(t, empty.Mean)
	assert.Zero(t, empty.Count)

	got := a.ProviderRating([]services.ReviewFact{
		{ProviderID: &p, Rating: 5},
		{ProviderID: &p, Rating: 4},
		{ProviderID: &other, Rating: 1},
		{ProviderID: nil, Rating: 1},
	}, p)
	assert.InDelta(t, 4.5, got.Mean, 1e-9)
	assert.Equal(t, 2, got.Count)
}

func TestPeriod(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	p := services.Period{From: from, To: to}

	require.NoError(t, p.Validate())
	assert.True(t, p.Contains(from))
	assert.False(t, p.Contains(to))
	require.ErrorIs(t, services.Period{From: to, To: from}.Validate(), errs.ErrValueIsInvalid)
}
