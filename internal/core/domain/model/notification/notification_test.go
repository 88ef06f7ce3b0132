package notification_test

import (
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipient_Channels(t *testing.T) {
	tests := []struct {
		name      string
		recipient notification.Recipient
		want      []notification.Channel
	}{
		{"email only", notification.Recipient{Email: "a@b.c"}, []notification.Channel{notification.ChannelEmail}},
		{"opted in without phone", notification.Recipient{Email: "a@b.c", WhatsAppOptIn: true}, []notification.Channel{notification.ChannelEmail}},
		{"phone without opt in", notification.Recipient{Email: "a@b.c", Phone: "+33600000000"}, []notification.Channel{notification.ChannelEmail}},
		{
			"opted in with phone",
			notification.Recipient{Email: "a@b.c", Phone: "+33600000000", WhatsAppOptIn: true},
			[]notification.Channel{notification.ChannelEmail, notification.ChannelWhatsApp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.recipient.Channels())
		})
	}
}

func TestNewRequest(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	loc, err := kernel.NewLocation("FR", "", "")
	require.NoError(t, err)
	contact, err := order.NewContact("c@example.com", "+33600000000", true)
	require.NoError(t, err)
	o, _, err := order.NewOrder(kernel.NewUUID(), order.Draft{
		ClientID:    kernel.NewUUID(),
		DesignID:    kernel.NewUUID(),
		DesignTitle: "Wave",
		SupportID:   kernel.NewUUID(),
		Capability:  "mug",
		ShipTo:      loc,
		Quantity:    2,
		UnitPrice:   500,
		Contact:     contact,
	}, now)
	require.NoError(t, err)

	req, err := notification.NewRequest(kernel.NewUUID(), o, order.Assigned, now)

	require.NoError(t, err)
	assert.Equal(t, notification.TemplateKey("order.assigned"), req.TemplateKey())
	assert.Equal(t, notification.Payload{OrderID: o.ID().String(), Status: "assigned", DesignTitle: "Wave"}, req.Payload())
	assert.False(t, req.Delivered())

	req.Record(notification.ChannelEmail, notification.OutcomeFailed, errors.New("smtp down"), now)
	req.Record(notification.ChannelWhatsApp, notification.OutcomeSent, nil, now)

	attempts := req.Attempts()
	require.Len(t, attempts, 2)
	assert.Equal(t, "smtp down", attempts[0].Error)
	assert.Empty(t, attempts[1].Error)
	assert.True(t, req.Delivered())
}

func TestRestoreRequest_Validation(t *testing.T) {
	_, err := notification.RestoreRequest(kernel.NewUUID(), kernel.NewUUID(), notification.Recipient{}, "order.shipped", notification.Payload{}, nil, time.Now())
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = notification.RestoreRequest(kernel.NewUUID(), kernel.NewUUID(), notification.Recipient{Email: "a@b.c"}, "order.shipped", notification.Payload{},
		[]notification.Attempt{{Channel: notification.ChannelEmail, Outcome: "lost"}}, time.Now())
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
