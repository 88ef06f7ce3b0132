package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func location(t *testing.T, country, region string) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(country, region, "")
	require.NoError(t, err)
	return loc
}

func draft(t *testing.T, capability string, shipTo kernel.Location) order.Draft {
	t.Helper()
	contact, err := order.NewContact("client@example.com", "+33612345678", true)
	require.NoError(t, err)
	return order.Draft{
		ClientID:    kernel.NewUUID(),
		DesignID:    kernel.NewUUID(),
		DesignTitle: "Lighthouse",
		SupportID:   kernel.NewUUID(),
		Capability:  provider.Capability(capability),
		ShipTo:      shipTo,
		Quantity:    2,
		UnitPrice:   1800,
		Contact:     contact,
	}
}

func pendingOrder(t *testing.T, capability string) *order.Order {
	t.Helper()
	o, _, err := order.NewOrder(kernel.NewUUID(), draft(t, capability, location(t, "FR", "Bretagne")), now)
	require.NoError(t, err)
	return o
}

// orderAt walks a fresh order to status along the happy path.
func orderAt(t *testing.T, capability string, status order.Status, providerID kernel.UUID) *order.Order {
	t.Helper()
	o := pendingOrder(t, capability)
	if status == order.Pending {
		return o
	}
	_, err := o.Assign(providerID, now)
	require.NoError(t, err)
	for _, next := range []order.Status{order.InProduction, order.Shipped, order.Delivered} {
		if o.Status() == status {
			break
		}
		_, err = o.Advance(order.ActorProvider, next, "", now)
		require.NoError(t, err)
	}
	require.Equal(t, status, o.Status())
	return o
}

func newProvider(t *testing.T, capability string, loc kernel.Location, capacity int, rating float64) *provider.Provider {
	t.Helper()
	caps, err := provider.NewCapabilitySet(capability)
	require.NoError(t, err)
	p, err := provider.RestoreProvider(kernel.NewUUID(), kernel.NewUUID(), "Atelier", loc, caps, capacity, true, rating)
	require.NoError(t, err)
	return p
}

func load(t *testing.T, reserved, capacity int) provider.Load {
	t.Helper()
	l, err := provider.NewLoad(reserved, capacity)
	require.NoError(t, err)
	return l
}

func matcher(t *testing.T) services.Matcher {
	t.Helper()
	m, err := services.NewMatcher(services.DefaultWeights())
	require.NoError(t, err)
	return m
}
