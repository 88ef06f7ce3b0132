package ports

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
)

// ErrCacheMiss indicates the key is absent from the analytics cache.
var ErrCacheMiss = errors.New("cache miss")

// ErrChannelUnavailable is returned by a Notifier that has no gateway for a
// channel. The dispatcher records such attempts as skipped.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Message is a rendered notification ready for a channel gateway.
type Message struct {
	RequestID   kernel.UUID
	Recipient   notification.Recipient
	TemplateKey notification.TemplateKey
	Payload     notification.Payload
	Subject     string
	Body        string
}

// Notifier delivers a message over one channel. Retry policy, if any,
// belongs to the gateway.
type Notifier interface {
	Send(ctx context.Context, channel notification.Channel, msg Message) error
}

// StatusChanged is published after a transition commits.
type StatusChanged struct {
	OrderID    kernel.UUID
	ProviderID *kernel.UUID
	From       order.Status
	To         order.Status
	Actor      order.Actor
	Note       string
	Version    int
	At         time.Time
}

// EventPublisher emits committed transitions to downstream consumers.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
}

// AnalyticsCache is a read-through cache for analytics views. Get reports
// ErrCacheMiss for absent keys.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
