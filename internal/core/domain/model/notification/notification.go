// Package notification models the outbound messages spawned by order status
// transitions and the per-channel outcome log kept for inspection and replay.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrRequestIsNotConstructed = errors.New("Request must be created via NewRequest constructor")

// Channel is a delivery medium handled by a notifier gateway.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Outcome is the result of a single channel attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

func (o Outcome) Validate() error {
	switch o {
	case OutcomeSent, OutcomeFailed, OutcomeSkipped:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not an outcome", string(o)))
}

// TemplateKey names the message template for a status, e.g. "order.assigned".
type TemplateKey string

// TemplateKeyFor derives the template key from the status an order entered.
func TemplateKeyFor(s order.Status) TemplateKey {
	return TemplateKey("order." + s.String())
}

// Recipient is where a message goes.
type Recipient struct {
	Email         string
	Phone         string
	WhatsAppOptIn bool
}

// RecipientOf snapshots the order's contact.
func RecipientOf(c order.Contact) Recipient {
	return Recipient{Email: c.Email(), Phone: c.Phone(), WhatsAppOptIn: c.WhatsAppOptIn()}
}

// Channels lists the channels to attempt: email always, WhatsApp when the
// client opted in and a phone number is on file.
func (r Recipient) Channels() []Channel {
	channels := []Channel{ChannelEmail}
	if r.WhatsAppOptIn && r.Phone != "" {
		channels = append(channels, ChannelWhatsApp)
	}
	return channels
}

// Payload is the rendering context handed to templates and gateways.
type Payload struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	DesignTitle string `json:"design_title"`
}

// Attempt records one channel delivery try.
type Attempt struct {
	Channel Channel
	Outcome Outcome
	Error   string
	At      time.Time
}

// Request is one outbound message tied to a status transition together with
// the outcome of every channel attempted.
type Request struct {
	id          kernel.UUID
	orderID     kernel.UUID
	recipient   Recipient
	templateKey TemplateKey
	payload     Payload
	attempts    []Attempt
	createdAt   time.Time
	guard       guard.ConstructorGuard
}

// NewRequest builds the message for an order that just entered status.
func NewRequest(id kernel.UUID, o *order.Order, status order.Status, now time.Time) (*Request, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	payload := Payload{
		OrderID:     o.ID().String(),
		Status:      status.String(),
		DesignTitle: o.DesignTitle(),
	}
	return RestoreRequest(id, o.ID(), RecipientOf(o.Contact()), TemplateKeyFor(status), payload, nil, now)
}

// RestoreRequest rebuilds a logged request.
func RestoreRequest(
	id kernel.UUID,
	orderID kernel.UUID,
	recipient Recipient,
	key TemplateKey,
	payload Payload,
	attempts []Attempt,
	createdAt time.Time,
) (*Request, error) {
	if err := errors.Join(id.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipient.Email) == "" {
		return nil, errs.NewValueIsRequiredError("recipient email")
	}
	if key == "" {
		return nil, errs.NewValueIsRequiredError("template key")
	}
	for _, a := range attempts {
		if err := a.Outcome.Validate(); err != nil {
			return nil, err
		}
	}

	return &Request{
		id:          id,
		orderID:     orderID,
		recipient:   recipient,
		templateKey: key,
		payload:     payload,
		attempts:    append([]Attempt(nil), attempts...),
		createdAt:   createdAt.UTC(),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (r *Request) Validate() error {
	if r == nil {
		return ErrRequestIsNotConstructed
	}
	return r.guard.Validate(ErrRequestIsNotConstructed)
}

func (r *Request) ID() kernel.UUID          { return r.id }
func (r *Request) OrderID() kernel.UUID     { return r.orderID }
func (r *Request) Recipient() Recipient     { return r.recipient }
func (r *Request) TemplateKey() TemplateKey { return r.templateKey }
func (r *Request) Payload() Payload         { return r.payload }
func (r *Request) CreatedAt() time.Time     { return r.createdAt }

// Attempts returns a copy of the recorded channel attempts.
func (r *Request) Attempts() []Attempt {
	return append([]Attempt(nil), r.attempts...)
}

// Record appends a channel attempt; err, when set, is kept as text.
func (r *Request) Record(channel Channel, outcome Outcome, err error, at time.Time) {
	a := Attempt{Channel: channel, Outcome: outcome, At: at.UTC()}
	if err != nil {
		a.Error = err.Error()
	}
	r.attempts = append(r.attempts, a)
}

// Delivered reports whether at least one channel succeeded.
func (r *Request) Delivered() bool {
	for _, a := range r.attempts {
		if a.Outcome == OutcomeSent {
			return true
		}
	}
	return false
}
