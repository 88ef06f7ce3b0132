package jobs

import (
	"context"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler recomputes reserved counts from open reservations.
type Reconciler interface {
	Handle(ctx context.Context) ([]ports.LoadDrift, error)
}

// CapacityReconcileJob corrects reserved-count drift left by crashes or
// manual edits.
type CapacityReconcileJob struct {
	reconciler Reconciler
	spec       string
	timeout    time.Duration
	cron       *cron.Cron
	logger     *zap.Logger
}

func NewCapacityReconcileJob(reconciler Reconciler, spec string, timeout time.Duration, logger *zap.Logger) *CapacityReconcileJob {
	return &CapacityReconcileJob{
		reconciler: reconciler,
		spec:       spec,
		timeout:    timeout,
		cron:       newCron(),
		logger:     logger.With(zap.String("component", "capacity_reconcile_job")),
	}
}

func (j *CapacityReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("capacity reconcile job started", zap.String("spec", j.spec))
	return nil
}

// Run performs one reconciliation pass. Drift is logged per provider.
func (j *CapacityReconcileJob) Run(ctx context.Context) {
	ctx, cancel := withTimeout(ctx, j.timeout)
	defer cancel()

	drifts, err := j.reconciler.Handle(ctx)
	if err != nil {
		j.logger.Error("capacity reconcile job failed", zap.Error(err))
		return
	}
	for _, d := range drifts {
		j.logger.Warn("reserved count corrected",
			zap.Stringer("provider_id", d.ProviderID),
			zap.Int("stored", d.Stored),
			zap.Int("actual", d.Actual))
	}
}

func (j *CapacityReconcileJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("capacity reconcile job stopped")
}
