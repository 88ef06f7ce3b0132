package jobs

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PendingSweeper retries assignment for orders still waiting for a provider.
type PendingSweeper interface {
	Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (commands.SweepResult, error)
}

// PendingAssignmentJob periodically re-runs matching for pending orders so
// that capacity freed by cancellations or new providers is picked up.
type PendingAssignmentJob struct {
	sweeper PendingSweeper
	spec    string
	batch   int
	timeout time.Duration
	cron    *cron.Cron
	logger  *zap.Logger
}

func NewPendingAssignmentJob(sweeper PendingSweeper, spec string, batch int, timeout time.Duration, logger *zap.Logger) *PendingAssignmentJob {
	return &PendingAssignmentJob{
		sweeper: sweeper,
		spec:    spec,
		batch:   batch,
		timeout: timeout,
		cron:    newCron(),
		logger:  logger.With(zap.String("component", "pending_assignment_job")),
	}
}

// Start schedules the sweep.
func (j *PendingAssignmentJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("pending assignment job started", zap.String("spec", j.spec))
	return nil
}

// Run performs one sweep.
func (j *PendingAssignmentJob) Run(ctx context.Context) {
	ctx, cancel := withTimeout(ctx, j.timeout)
	defer cancel()

	cmd, err := commands.NewAssignPendingOrdersCommand(j.batch)
	if err != nil {
		j.logger.Error("pending assignment job misconfigured", zap.Error(err))
		return
	}

	res, err := j.sweeper.Handle(ctx, cmd)
	if err != nil {
		j.logger.Error("pending assignment job failed", zap.Error(err))
		return
	}
	if res.Scanned == 0 {
		return
	}
	j.logger.Info("pending orders swept",
		zap.Int("scanned", res.Scanned),
		zap.Int("assigned", res.Assigned),
		zap.Int("waiting", res.Waiting),
		zap.Int("failed", res.Failed))
}

// Stop waits for a running sweep to finish.
func (j *PendingAssignmentJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("pending assignment job stopped")
}
