package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// NotificationWorker drains the notification outbox after commit. Actual
// email/push delivery belongs to an external dispatcher; for now the worker
// logs the dispatch, which is also the at-most-once floor the engine
// promises (a failure here never touches the committed state change).
type NotificationWorker struct {
	river.WorkerDefaults[NotificationArgs]
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	slog.InfoContext(ctx, "dispatching notification",
		"kind", job.Args.NotificationKind,
		"recipient_id", job.Args.RecipientID,
		"job_id", job.ID,
	)
	return nil
}

// Sweeper is the slice of the lifecycle engine the sweep job needs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// SweepArgs triggers an expiry sweep. The job carries no payload; the
// sweeper re-reads its candidates itself.
type SweepArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (SweepArgs) Kind() string { return "contract.sweep_expired" }

// SweepWorker runs the periodic expiry sweep through the same engine path
// as the on-demand HTTP trigger.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]

	Engine Sweeper
}

// Work runs one sweep pass.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	count, err := w.Engine.SweepExpired(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "expiry sweep complete",
		"transitioned", count,
		"job_id", job.ID,
	)
	return nil
}
