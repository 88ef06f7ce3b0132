// Package rabbitmq hands rendered notifications to the channel gateways over
// RabbitMQ. Each channel has its own durable queue bound to a direct exchange
// by channel name; the gateways consuming those queues own retries.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultExchange = "notifications"
	queuePrefix     = "notifications."
)

// Channel is the subset of *amqp.Channel the notifier uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Config selects the broker, the exchange and the channels with a gateway.
type Config struct {
	URL      string
	Exchange string
	Channels []notification.Channel
	Timeout  time.Duration
}

// Envelope is the message body consumed by gateways.
type Envelope struct {
	RequestID   string               `json:"request_id"`
	Channel     string               `json:"channel"`
	TemplateKey string               `json:"template_key"`
	Email       string               `json:"email,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Subject     string               `json:"subject"`
	Body        string               `json:"body"`
	Payload     notification.Payload `json:"payload"`
}

// Notifier implements ports.Notifier with publisher confirms.
type Notifier struct {
	ch       Channel
	acks     <-chan amqp.Confirmation
	exchange string
	channels []notification.Channel
	timeout  time.Duration
	log      *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// Dial connects, enables publisher confirms and declares the topology.
func Dial(cfg Config, log *zap.Logger) (*Notifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	n, err := NewNotifier(ch, acks, cfg, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewNotifier declares the exchange and one queue per configured channel on ch.
func NewNotifier(ch Channel, acks <-chan amqp.Confirmation, cfg Config, log *zap.Logger) (*Notifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = []notification.Channel{notification.ChannelEmail}
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	for _, c := range cfg.Channels {
		queue := queuePrefix + string(c)
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, string(c), cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return &Notifier{
		ch:       ch,
		acks:     acks,
		exchange: cfg.Exchange,
		channels: slices.Clone(cfg.Channels),
		timeout:  cfg.Timeout,
		log:      log,
	}, nil
}

// Send publishes the message for channel and waits for the broker confirm.
// Channels without a gateway report ports.ErrChannelUnavailable.
func (n *Notifier) Send(ctx context.Context, channel notification.Channel, msg ports.Message) error {
	if !slices.Contains(n.channels, channel) {
		return fmt.Errorf("%w: %s", ports.ErrChannelUnavailable, channel)
	}

	body, err := json.Marshal(Envelope{
		RequestID:   msg.RequestID.String(),
		Channel:     string(channel),
		TemplateKey: string(msg.TemplateKey),
		Email:       msg.Recipient.Email,
		Phone:       msg.Recipient.Phone,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Payload:     msg.Payload,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	// Confirms arrive in publish order on a single channel.
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ch.PublishWithContext(ctx, n.exchange, string(channel), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    msg.RequestID.String() + ":" + string(channel),
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.TemplateKey),
		Body:         body,
	}); err != nil {
		return err
	}

	if n.acks == nil {
		return nil
	}
	select {
	case conf, ok := <-n.acks:
		if !ok {
			return errors.New("rabbitmq channel closed before confirm")
		}
		if !conf.Ack {
			return errors.New("publish NACK from broker")
		}
		n.log.Debug("notification handed to gateway",
			zap.Stringer("request_id", msg.RequestID),
			zap.String("channel", string(channel)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel and, when dialed here, the connection.
func (n *Notifier) Close() error {
	err := n.ch.Close()
	if n.conn != nil {
		err = errors.Join(err, n.conn.Close())
	}
	return err
}
