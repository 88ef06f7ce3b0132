package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockSweeper struct{ mock.Mock }

func (m *MockSweeper) Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (commands.SweepResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SweepResult), args.Error(1)
}

type MockReconciler struct{ mock.Mock }

func (m *MockReconciler) Handle(ctx context.Context) ([]ports.LoadDrift, error) {
	args := m.Called(ctx)
	drifts, _ := args.Get(0).([]ports.LoadDrift)
	return drifts, args.Error(1)
}

type MockJob struct{ mock.Mock }

func (m *MockJob) Start() error { return m.Called().Error(0) }
func (m *MockJob) Stop()        { m.Called() }

func TestPendingAssignmentJob_Run(t *testing.T) {
	t.Run("logs swept batch", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		sweeper := new(MockSweeper)
		sweeper.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.AssignPendingOrdersCommand) bool {
			return cmd.Batch() == 25
		})).Return(commands.SweepResult{Scanned: 3, Assigned: 2, Waiting: 1}, nil).Once()

		job := jobs.NewPendingAssignmentJob(sweeper, "* * * * * *", 25, time.Second, zap.New(core))
		job.Run(t.Context())

		sweeper.AssertExpectations(t)
		entries := logs.FilterMessage("pending orders swept").All()
		require.Len(t, entries, 1)
		assert.EqualValues(t, 2, entries[0].ContextMap()["assigned"])
	})

	t.Run("quiet when nothing is pending", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		sweeper := new(MockSweeper)
		sweeper.On("Handle", mock.Anything, mock.Anything).Return(commands.SweepResult{}, nil).Once()

		jobs.NewPendingAssignmentJob(sweeper, "* * * * * *", 25, 0, zap.New(core)).Run(t.Context())

		assert.Zero(t, logs.FilterMessage("pending orders swept").Len())
	})

	t.Run("logs failure", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		sweeper := new(MockSweeper)
		sweeper.On("Handle", mock.Anything, mock.Anything).
			Return(commands.SweepResult{}, errors.New("db down")).Once()

		jobs.NewPendingAssignmentJob(sweeper, "* * * * * *", 25, time.Second, zap.New(core)).Run(t.Context())

		assert.Equal(t, 1, logs.FilterMessage("pending assignment job failed").Len())
	})

	t.Run("bounded by timeout", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("Handle", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), mock.Anything).Return(commands.SweepResult{}, nil).Once()

		jobs.NewPendingAssignmentJob(sweeper, "* * * * * *", 25, time.Second, zap.NewNop()).Run(t.Context())

		sweeper.AssertExpectations(t)
	})
}

func TestPendingAssignmentJob_StartRejectsBadSpec(t *testing.T) {
	job := jobs.NewPendingAssignmentJob(new(MockSweeper), "every minute", 25, time.Second, zap.NewNop())
	require.Error(t, job.Start())
}

func TestCapacityReconcileJob_Run(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	providerID := kernel.NewUUID()
	reconciler := new(MockReconciler)
	reconciler.On("Handle", mock.Anything).
		Return([]ports.LoadDrift{{ProviderID: providerID, Stored: 4, Actual: 1}}, nil).Once()

	jobs.NewCapacityReconcileJob(reconciler, "0 * * * * *", time.Second, zap.New(core)).Run(t.Context())

	reconciler.AssertExpectations(t)
	entries := logs.FilterMessage("reserved count corrected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, providerID.String(), fields["provider_id"])
	assert.EqualValues(t, 4, fields["stored"])
	assert.EqualValues(t, 1, fields["actual"])
}

func TestCapacityReconcileJob_StartAndStop(t *testing.T) {
	reconciler := new(MockReconciler)
	reconciler.On("Handle", mock.Anything).Return(nil, nil).Maybe()

	job := jobs.NewCapacityReconcileJob(reconciler, "0 0 * * * *", time.Second, zap.NewNop())
	require.NoError(t, job.Start())
	job.Stop()
}

func TestJobManager(t *testing.T) {
	t.Run("starts in order and stops in reverse", func(t *testing.T) {
		first, second := new(MockJob), new(MockJob)
		mock.InOrder(
			first.On("Start").Return(nil).Once(),
			second.On("Start").Return(nil).Once(),
			second.On("Stop").Once(),
			first.On("Stop").Once(),
		)

		jm := jobs.NewJobManager(zap.NewNop(), first, second)
		require.NoError(t, jm.StartAll())
		jm.StopAll()

		first.AssertExpectations(t)
		second.AssertExpectations(t)
	})

	t.Run("stops started jobs when one fails", func(t *testing.T) {
		first, second := new(MockJob), new(MockJob)
		first.On("Start").Return(nil).Once()
		second.On("Start").Return(errors.New("bad spec")).Once()
		first.On("Stop").Once()

		err := jobs.NewJobManager(zap.NewNop(), first, second).StartAll()

		require.Error(t, err)
		first.AssertExpectations(t)
		second.AssertNotCalled(t, "Stop")
	})
}
