// Package notifylog is the development notifier: it writes every rendered
// message to the log instead of a gateway.
package notifylog

import (
	"context"
	"fmt"
	"slices"

	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/ports"

	"go.uber.org/zap"
)

type Notifier struct {
	log      *zap.Logger
	channels []notification.Channel
}

// New logs messages for the given channels; others are unavailable. With no
// channels, email only.
func New(log *zap.Logger, channels ...notification.Channel) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	if len(channels) == 0 {
		channels = []notification.Channel{notification.ChannelEmail}
	}
	return &Notifier{log: log, channels: channels}
}

func (n *Notifier) Send(_ context.Context, channel notification.Channel, msg ports.Message) error {
	if !slices.Contains(n.channels, channel) {
		return fmt.Errorf("%w: %s", ports.ErrChannelUnavailable, channel)
	}
	n.log.Info("notification",
		zap.String("channel", string(channel)),
		zap.Stringer("request_id", msg.RequestID),
		zap.String("template", string(msg.TemplateKey)),
		zap.String("to", recipient(channel, msg.Recipient)),
		zap.String("subject", msg.Subject))
	return nil
}

func recipient(channel notification.Channel, r notification.Recipient) string {
	if channel == notification.ChannelWhatsApp {
		return r.Phone
	}
	return r.Email
}
