package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const MaxNoteLength = 500

var ErrAdvanceStatusCommandIsNotConstructed = errors.New(
	"AdvanceStatusCommand must be created via NewAdvanceStatusCommand constructor",
)

// AdvanceStatusCommand requests one lifecycle transition on behalf of an actor.
type AdvanceStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   order.Actor
	target  order.Status
	note    string

	guard guard.ConstructorGuard
}

func NewAdvanceStatusCommand(
	orderID kernel.UUID,
	actor order.Actor,
	target order.Status,
	note string,
) (AdvanceStatusCommand, error) {
	note = strings.TrimSpace(note)

	var noteErr error
	if len([]rune(note)) > MaxNoteLength {
		noteErr = errs.NewValueIsOutOfRangeError("note length", len([]rune(note)), 0, MaxNoteLength)
	}
	if err := errors.Join(orderID.Validate(), actor.Validate(), target.Validate(), noteErr); err != nil {
		return AdvanceStatusCommand{}, err
	}

	return AdvanceStatusCommand{
		orderID: orderID,
		actor:   actor,
		target:  target,
		note:    note,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c AdvanceStatusCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceStatusCommandIsNotConstructed)
}

func (c AdvanceStatusCommand) OrderID() kernel.UUID { return c.orderID }
func (c AdvanceStatusCommand) Actor() order.Actor   { return c.actor }
func (c AdvanceStatusCommand) Target() order.Status { return c.target }
func (c AdvanceStatusCommand) Note() string         { return c.note }
