package commands

import (
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const DefaultSweepBatch = 100

var ErrAssignPendingOrdersCommandIsNotConstructed = errors.New(
	"AssignPendingOrdersCommand must be created via NewAssignPendingOrdersCommand constructor",
)

// AssignPendingOrdersCommand retries matching for orders left pending.
type AssignPendingOrdersCommand struct { //nolint:recvcheck //using for validation
	batch int

	guard guard.ConstructorGuard
}

func NewAssignPendingOrdersCommand(batch int) (AssignPendingOrdersCommand, error) {
	if batch <= 0 {
		return AssignPendingOrdersCommand{}, errs.NewValueIsOutOfRangeError("batch", batch, 1, "unbounded")
	}
	return AssignPendingOrdersCommand{batch: batch, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAssignPendingOrdersCommandIsNotConstructed)
}

func (c AssignPendingOrdersCommand) Batch() int { return c.batch }
