// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs use github.com/robfig/cron/v3 with six-field (seconds) specs:
//
//  1. PendingAssignmentJob re-runs matching for orders still awaiting a
//     provider, oldest first, in batches.
//  2. CapacityReconcileJob recomputes every provider's reserved count from
//     its open reservations and logs corrected drift.
//
// # Usage
//
//	manager := jobs.NewJobManager(logger,
//		jobs.NewPendingAssignmentJob(sweep, "*/30 * * * * *", 100, 20*time.Second, logger),
//		jobs.NewCapacityReconcileJob(reconcile, "0 */15 * * * *", time.Minute, logger),
//	)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// A tick is skipped while the previous run of the same job is still going.
// Failures are logged and the next tick tries again.
package jobs
