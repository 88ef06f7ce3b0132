// Package notifications sends the best-effort messages that follow order
// status transitions. Nothing in here can fail or delay a transition.
package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

const (
	// DefaultSendTimeout bounds one dispatch, all channels included.
	DefaultSendTimeout = 15 * time.Second
	// DefaultStoreTimeout bounds the notification log write that follows it.
	DefaultStoreTimeout = 5 * time.Second
)

// ErrUnknownTemplate is recorded when no template exists for a status.
var ErrUnknownTemplate = errors.New("unknown notification template")

// Dispatcher resolves the template for the status an order entered, renders
// it and hands it to the notifier once per channel. Every attempt, failed or
// not, is written to the notification log.
type Dispatcher struct {
	notifier  ports.Notifier
	log       ports.NotificationRepository
	templates *Templates
	metrics   *metrics.Metrics
	logger    *zap.Logger
	timeout   time.Duration
	store     time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout replaces DefaultSendTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithStoreTimeout replaces DefaultStoreTimeout. Non-positive values are
// ignored.
func WithStoreTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.store = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(disp *Dispatcher) { disp.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(disp *Dispatcher) { disp.metrics = m }
}

func NewDispatcher(
	notifier ports.Notifier,
	log ports.NotificationRepository,
	templates *Templates,
	logger *zap.Logger,
	opts ...Option,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		notifier:  notifier,
		log:       log,
		templates: templates,
		logger:    logger,
		timeout:   DefaultSendTimeout,
		store:     DefaultStoreTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify builds the notification request for o entering status and delivers
// it in the background. It never blocks on a gateway and never fails; the
// caller's cancellation does not abort a dispatch already started.
func (d *Dispatcher) Notify(ctx context.Context, o *order.Order, status order.Status) {
	req, err := notification.NewRequest(kernel.NewUUID(), o, status, d.now())
	if err != nil {
		d.logger.Error("build notification request", zap.Error(err))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.deliver(context.WithoutCancel(ctx), req)
	}()
}

// Wait blocks until every dispatch started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// deliver sends on every channel under the dispatch timeout, then stores the
// outcomes under a separate timeout so a gateway that used up the first one
// does not cost the log entry.
func (d *Dispatcher) deliver(ctx context.Context, req *notification.Request) {
	d.send(ctx, req)

	storeCtx, cancel := context.WithTimeout(ctx, d.store)
	defer cancel()

	if err := d.log.Add(storeCtx, req); err != nil {
		d.logger.Error("store notification outcome", zap.Error(err), zap.Stringer("order_id", req.OrderID()))
	}
}

func (d *Dispatcher) send(ctx context.Context, req *notification.Request) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification dispatch panicked", zap.Any("panic", r),
				zap.Stringer("order_id", req.OrderID()))
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	subject, body, renderErr := d.templates.Render(req.TemplateKey(), req.Payload())

	for _, channel := range req.Recipient().Channels() {
		outcome, err := d.attempt(sendCtx, req, channel, subject, body, renderErr)
		req.Record(channel, outcome, err, d.now())
		d.metrics.Notification(string(channel), string(outcome))

		fields := []zap.Field{
			zap.Stringer("order_id", req.OrderID()),
			zap.String("template", string(req.TemplateKey())),
			zap.String("channel", string(channel)),
			zap.String("outcome", string(outcome)),
		}
		if err != nil {
			d.logger.Warn("notification attempt failed", append(fields, zap.Error(err))...)
			continue
		}
		d.logger.Debug("notification attempt", fields...)
	}
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	req *notification.Request,
	channel notification.Channel,
	subject, body string,
	renderErr error,
) (notification.Outcome, error) {
	if renderErr != nil {
		return notification.OutcomeSkipped, renderErr
	}

	err := d.notifier.Send(ctx, channel, ports.Message{
		RequestID:   req.ID(),
		Recipient:   req.Recipient(),
		TemplateKey: req.TemplateKey(),
		Payload:     req.Payload(),
		Subject:     subject,
		Body:        body,
	})
	switch {
	case err == nil:
		return notification.OutcomeSent, nil
	case errors.Is(err, ports.ErrChannelUnavailable):
		return notification.OutcomeSkipped, err
	default:
		return notification.OutcomeFailed, err
	}
}
