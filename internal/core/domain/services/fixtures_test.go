package services_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func location(t *testing.T, country, region string) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(country, region, "")
	require.NoError(t, err)
	return loc
}

func pendingOrder(t *testing.T, capability string, shipTo kernel.Location) *order.Order {
	t.Helper()
	contact, err := order.NewContact("client@example.com", "", false)
	require.NoError(t, err)
	o, _, err := order.NewOrder(kernel.NewUUID(), order.Draft{
		ClientID:   kernel.NewUUID(),
		DesignID:   kernel.NewUUID(),
		SupportID:  kernel.NewUUID(),
		Capability: provider.Capability(capability),
		ShipTo:     shipTo,
		Quantity:   1,
		UnitPrice:  1000,
		Contact:    contact,
	}, now)
	require.NoError(t, err)
	return o
}

type candidateSpec struct {
	id       string
	caps     []string
	loc      kernel.Location
	capacity int
	reserved int
	rating   float64
	inactive bool
}

func candidate(t *testing.T, spec candidateSpec) services.Candidate {
	t.Helper()
	id := kernel.NewUUID()
	if spec.id != "" {
		var err error
		id, err = kernel.UUIDFromString(spec.id)
		require.NoError(t, err)
	}
	caps, err := provider.NewCapabilitySet(spec.caps...)
	require.NoError(t, err)
	p, err := provider.RestoreProvider(id, kernel.NewUUID(), "Shop "+id.String()[:4], spec.loc, caps,
		spec.capacity, !spec.inactive, spec.rating)
	require.NoError(t, err)
	load, err := provider.NewLoad(spec.reserved, spec.capacity)
	require.NoError(t, err)
	return services.Candidate{Provider: p, Load: load}
}
