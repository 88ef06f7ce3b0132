// Package kafka publishes committed order status changes to a kafka topic.
// Messages are keyed by order id so one order's events keep their order
// within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventType is carried in the message headers and body.
const EventType = "order.status_changed"

// DefaultQueueSize is the number of events buffered ahead of the writer.
const DefaultQueueSize = 1024

var (
	ErrQueueFull       = errors.New("kafka: publish queue is full")
	ErrPublisherClosed = errors.New("kafka: publisher is closed")
)

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the brokers and topic.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// StatusChangedEvent is the wire shape of ports.StatusChanged.
type StatusChangedEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Actor      string    `json:"actor"`
	Note       string    `json:"note,omitempty"`
	Version    int       `json:"version"`
	At         time.Time `json:"at"`
}

// Publisher implements ports.EventPublisher. Events are queued and written by
// a single background worker, so PublishStatusChanged never waits on the
// broker and events leave in the order they were published.
type Publisher struct {
	writer  Writer
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithQueueSize replaces DefaultQueueSize. Non-positive values are ignored.
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan kafka.Message, n)
		}
	}
}

// NewWriter builds a writer that waits for all in-sync replicas.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// NewPublisher starts the background worker. timeout bounds each write.
func NewPublisher(writer Writer, timeout time.Duration, log *zap.Logger, opts ...Option) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Publisher{
		writer:  writer,
		timeout: timeout,
		log:     log,
		queue:   make(chan kafka.Message, DefaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	go p.run()
	return p
}

// PublishStatusChanged queues one event. It returns ErrQueueFull instead of
// waiting when the broker falls behind.
func (p *Publisher) PublishStatusChanged(_ context.Context, event ports.StatusChanged) error {
	body, err := json.Marshal(toWire(event))
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: body,
		Time:  event.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventType)},
			{Key: "version", Value: []byte(strconv.Itoa(event.Version))},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, drains the queue for at most one write
// timeout and closes the writer. Events still queued after that are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		p.cancel()
		<-p.done
	}
	p.cancel()

	return p.writer.Close()
}

func (p *Publisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		if err := p.write(msg); err != nil {
			p.log.Warn("publish status changed event",
				zap.ByteString("order_id", msg.Key),
				zap.Error(err))
			continue
		}
		p.log.Debug("status change published", zap.ByteString("order_id", msg.Key))
	}
}

func (p *Publisher) write(msg kafka.Message) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, msg)
}

func toWire(e ports.StatusChanged) StatusChangedEvent {
	out := StatusChangedEvent{
		Type:    EventType,
		OrderID: e.OrderID.String(),
		From:    e.From.String(),
		To:      e.To.String(),
		Actor:   e.Actor.String(),
		Note:    e.Note,
		Version: e.Version,
		At:      e.At.UTC(),
	}
	if e.ProviderID != nil {
		out.ProviderID = e.ProviderID.String()
	}
	return out
}
