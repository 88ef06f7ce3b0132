package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/application/capacity"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Assignment outcomes used as metric labels.
const (
	AssignmentAssigned   = "assigned"
	AssignmentNoProvider = "no_eligible_provider"
	AssignmentNotPending = "not_pending"
	AssignmentStale      = "stale_state"
	AssignmentError      = "error"
)

// AssignProviderResult describes the order after the call. On
// order.ErrOrderNotPending it carries the current status and provider.
type AssignProviderResult struct {
	OrderID    kernel.UUID
	Status     order.Status
	ProviderID *kernel.UUID
	Score      float64
}

// AssignProviderCommandHandler is the matching engine: it ranks eligible
// providers, reserves a slot with the best one and moves the order from
// pending to assigned, all in one transaction.
//
//	res, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, services.ErrNoEligibleProvider):
//	    // stays pending, retry later
//	case errors.Is(err, order.ErrOrderNotPending):
//	    // already placed with res.ProviderID
//	}
type AssignProviderCommandHandler struct {
	uowFactory UoWFactory
	matcher    services.Matcher
	effects    Effects
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewAssignProviderCommandHandler(
	uowFactory UoWFactory,
	matcher services.Matcher,
	effects Effects,
	m *metrics.Metrics,
	log *zap.Logger,
) AssignProviderCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return AssignProviderCommandHandler{
		uowFactory: uowFactory,
		matcher:    matcher,
		effects:    effects,
		metrics:    m,
		log:        log,
	}
}

// Handle places the order. When a concurrent assignment takes the chosen
// provider's last slot between ranking and reservation, the candidates are
// re-ranked without that provider and reservation is tried exactly once more.
func (h AssignProviderCommandHandler) Handle(ctx context.Context, cmd AssignProviderCommand) (AssignProviderResult, error) {
	res, err := h.handle(ctx, cmd)
	h.metrics.Assignment(assignmentOutcome(err))
	return res, err
}

func (h AssignProviderCommandHandler) handle(ctx context.Context, cmd AssignProviderCommand) (AssignProviderResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignProviderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AssignProviderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	o, err := orders.Get(ctx, cmd.OrderID())
	if err != nil {
		return AssignProviderResult{}, err
	}

	current := AssignProviderResult{OrderID: o.ID(), Status: o.Status(), ProviderID: o.Provider()}
	if err = o.ValidateAssign(); err != nil {
		return current, err
	}

	ledger := capacity.NewLedger(uow.ProviderRepository(), h.metrics, h.log)

	best, err := h.reserveBest(ctx, uow, ledger, o)
	if err != nil {
		return current, err
	}

	expectedStatus, expectedVersion := o.Status(), o.Version()
	rec, err := o.Assign(best.ProviderID(), time.Now())
	if err != nil {
		return current, err
	}

	if err = orders.CompareAndSwapStatus(ctx, o, expectedStatus, expectedVersion); err != nil {
		if errors.Is(err, order.ErrStaleState) {
			h.metrics.StaleState()
		}
		return current, err
	}
	if err = orders.AppendHistory(ctx, rec); err != nil {
		return current, err
	}

	if err = uow.Commit(ctx); err != nil {
		return current, err
	}

	h.effects.Committed(ctx, o, rec)

	return AssignProviderResult{
		OrderID:    o.ID(),
		Status:     o.Status(),
		ProviderID: o.Provider(),
		Score:      best.Score,
	}, nil
}

func (h AssignProviderCommandHandler) reserveBest(
	ctx context.Context,
	uow UoW,
	ledger capacity.Ledger,
	o *order.Order,
) (services.Scored, error) {
	var excluded []kernel.UUID

	for attempt := 0; attempt < 2; attempt++ {
		candidates, err := h.candidates(ctx, uow, ledger, o.RequiredCapability())
		if err != nil {
			return services.Scored{}, err
		}

		best, err := h.matcher.Best(o, candidates, excluded...)
		if err != nil {
			return services.Scored{}, err
		}

		err = ledger.Reserve(ctx, best.ProviderID(), o.ID())
		if err == nil {
			return best, nil
		}
		if !errors.Is(err, provider.ErrCapacityExceeded) {
			return services.Scored{}, err
		}

		h.metrics.CapacityRaceLost()
		h.log.Info("capacity race lost, re-ranking",
			zap.Stringer("order_id", o.ID()),
			zap.Stringer("provider_id", best.ProviderID()),
			zap.Int("attempt", attempt+1))
		excluded = append(excluded, best.ProviderID())
	}

	return services.Scored{}, services.ErrNoEligibleProvider
}

func (h AssignProviderCommandHandler) candidates(
	ctx context.Context,
	uow UoW,
	ledger capacity.Ledger,
	capability provider.Capability,
) ([]services.Candidate, error) {
	providers, err := uow.ProviderRepository().GetActiveByCapability(ctx, capability)
	if err != nil {
		return nil, err
	}

	candidates := make([]services.Candidate, 0, len(providers))
	for _, p := range providers {
		load, err := ledger.Load(ctx, p.ID())
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, services.Candidate{Provider: p, Load: load})
	}
	return candidates, nil
}

func assignmentOutcome(err error) string {
	switch {
	case err == nil:
		return AssignmentAssigned
	case errors.Is(err, services.ErrNoEligibleProvider):
		return AssignmentNoProvider
	case errors.Is(err, order.ErrOrderNotPending):
		return AssignmentNotPending
	case errors.Is(err, order.ErrStaleState):
		return AssignmentStale
	default:
		return AssignmentError
	}
}
