package review_test

import (
	"strings"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	loc, err := kernel.NewLocation("FR", "Bretagne", "Rennes")
	require.NoError(t, err)
	contact, err := order.NewContact("c@example.com", "", false)
	require.NoError(t, err)

	o, _, err := order.NewOrder(kernel.NewUUID(), order.Draft{
		ClientID:   kernel.NewUUID(),
		DesignID:   kernel.NewUUID(),
		SupportID:  kernel.NewUUID(),
		Capability: "mug",
		ShipTo:     loc,
		Quantity:   1,
		UnitPrice:  900,
		Contact:    contact,
	}, now)
	require.NoError(t, err)
	return o
}

func deliver(t *testing.T, o *order.Order) kernel.UUID {
	t.Helper()
	providerID := kernel.NewUUID()
	_, err := o.Assign(providerID, now)
	require.NoError(t, err)
	for _, s := range []order.Status{order.InProduction, order.Shipped, order.Delivered} {
		_, err = o.Advance(order.ActorProvider, s, "", now)
		require.NoError(t, err)
	}
	return providerID
}

func TestNewReview(t *testing.T) {
	t.Run("delivered order can be reviewed", func(t *testing.T) {
		o := newOrder(t)
		providerID := deliver(t, o)

		r, err := review.NewReview(kernel.NewUUID(), o, 5, " lovely print ", now)

		require.NoError(t, err)
		require.NoError(t, r.Validate())
		assert.Equal(t, 5, r.Rating())
		assert.Equal(t, "lovely print", r.Comment())
		assert.True(t, r.OrderID().IsEqual(o.ID()))
		assert.True(t, r.DesignID().IsEqual(o.DesignID()))
		require.NotNil(t, r.ProviderID())
		assert.True(t, r.ProviderID().IsEqual(providerID))
	})

	t.Run("pending order cannot be reviewed", func(t *testing.T) {
		_, err := review.NewReview(kernel.NewUUID(), newOrder(t), 4, "", now)
		require.ErrorIs(t, err, review.ErrOrderNotDelivered)
	})

	t.Run("rating outside 1..5 is rejected", func(t *testing.T) {
		o := newOrder(t)
		deliver(t, o)
		for _, rating := range []int{0, 6, -1} {
			_, err := review.NewReview(kernel.NewUUID(), o, rating, "", now)
			require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		}
	})

	t.Run("overlong comment is rejected", func(t *testing.T) {
		o := newOrder(t)
		deliver(t, o)
		_, err := review.NewReview(kernel.NewUUID(), o, 3, strings.Repeat("x", review.MaxComment+1), now)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestRestoreReview_WithoutProvider(t *testing.T) {
	r, err := review.RestoreReview(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), nil, 2, "", now)
	require.NoError(t, err)
	assert.Nil(t, r.ProviderID())
}
