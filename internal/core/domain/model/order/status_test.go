package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []order.Status{
	order.Pending, order.Assigned, order.InProduction, order.Shipped,
	order.Delivered, order.Cancelled, order.Refunded,
}

var allActors = []order.Actor{
	order.ActorMatchingEngine, order.ActorProvider, order.ActorClient, order.ActorAdmin,
}

func TestStatus_TransitionTable(t *testing.T) {
	type edge struct {
		from, to order.Status
		actor    order.Actor
	}
	allowed := map[edge]bool{
		{order.Pending, order.Assigned, order.ActorMatchingEngine}: true,
		{order.Assigned, order.InProduction, order.ActorProvider}:  true,
		{order.InProduction, order.Shipped, order.ActorProvider}:   true,
		{order.Shipped, order.Delivered, order.ActorProvider}:      true,
		{order.Pending, order.Cancelled, order.ActorClient}:        true,
		{order.Assigned, order.Cancelled, order.ActorClient}:       true,
		{order.Delivered, order.Refunded, order.ActorAdmin}:        true,
		{order.Cancelled, order.Refunded, order.ActorAdmin}:        true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, actor := range allActors {
				next, err := from.Transition(actor, to)
				if allowed[edge{from, to, actor}] {
					require.NoError(t, err, "%s -> %s by %s", from, to, actor)
					assert.Equal(t, to, next)
					continue
				}
				require.ErrorIs(t, err, order.ErrInvalidTransition, "%s -> %s by %s", from, to, actor)
				assert.Equal(t, order.Unknown, next)
			}
		}
	}
}

func TestStatus_TransitionRejectsUnknownValues(t *testing.T) {
	_, err := order.Unknown.Transition(order.ActorClient, order.Cancelled)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = order.Pending.Transition(order.ActorUnknown, order.Cancelled)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = order.Pending.Transition(order.ActorClient, order.Status(42))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status   order.Status
		terminal bool
		holds    bool
		provider bool
	}{
		{order.Pending, false, false, false},
		{order.Assigned, false, true, true},
		{order.InProduction, false, true, true},
		{order.Shipped, false, true, true},
		{order.Delivered, true, false, true},
		{order.Cancelled, true, false, false},
		{order.Refunded, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.holds, tt.status.HoldsCapacity())
			assert.Equal(t, tt.provider, tt.status.RequiresProvider())
			require.NoError(t, tt.status.ValidateCanHaveProvider(tt.provider))
			require.Error(t, tt.status.ValidateCanHaveProvider(!tt.provider))
		})
	}
}

func TestReleasesCapacity(t *testing.T) {
	assert.True(t, order.ReleasesCapacity(order.Assigned, order.Cancelled))
	assert.True(t, order.ReleasesCapacity(order.Shipped, order.Delivered))
	assert.False(t, order.ReleasesCapacity(order.Pending, order.Cancelled))
	assert.False(t, order.ReleasesCapacity(order.Delivered, order.Refunded))
	assert.False(t, order.ReleasesCapacity(order.Cancelled, order.Refunded))
	assert.False(t, order.ReleasesCapacity(order.Assigned, order.InProduction))
}

func TestParseStatusAndActor(t *testing.T) {
	for _, s := range allStatuses {
		parsed, err := order.ParseStatus(" " + s.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	for _, a := range allActors {
		parsed, err := order.ParseActor(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := order.ParseStatus("lost")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	_, err = order.ParseActor("courier")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	assert.Equal(t, "unknown", order.Status(99).String())
	assert.Equal(t, "unknown", order.Actor(99).String())
}
