package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/provider"

	"go.uber.org/zap"
)

type RegisterProviderCommandHandler struct {
	uowFactory ProviderUoWFactory
	log        *zap.Logger
}

func NewRegisterProviderCommandHandler(uowFactory ProviderUoWFactory, log *zap.Logger) RegisterProviderCommandHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return RegisterProviderCommandHandler{uowFactory: uowFactory, log: log}
}

func (h RegisterProviderCommandHandler) Handle(ctx context.Context, cmd RegisterProviderCommand) (*provider.Provider, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := provider.NewProvider(
		cmd.providerID, cmd.userID, cmd.businessName, cmd.location, cmd.capabilities, cmd.capacityPerWeek,
	)
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.ProviderRepository().Add(ctx, p); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.log.Info("provider registered",
		zap.Stringer("provider_id", p.ID()),
		zap.Strings("capabilities", p.Capabilities().Strings()),
		zap.Int("capacity_per_week", p.CapacityPerWeek()))
	return p, nil
}
