package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tasksync/internal/debounce"
	"git.home.luguber.info/inful/tasksync/internal/events"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	syncpkg "git.home.luguber.info/inful/tasksync/internal/sync"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

// syncHandler adapts the orchestrator into the coordinator's Handler shape:
// it times the run, records metrics, and publishes a SyncCompleted event on
// both success and failure. On the deferred path that event is the only
// record a failure leaves.
func (d *Daemon) syncHandler(ctx context.Context, ev webhook.Event, action webhook.Action, path debounce.Path) error {
	jobID := uuid.NewString()
	start := time.Now()
	log := d.log.With(
		logfields.JobID(jobID),
		logfields.PageID(ev.EntityID),
		logfields.EventAction(string(action)),
		slog.String("path", string(path)))

	log.Info("sync started")
	report, err := d.orchestrator().Sync(ctx, ev.EntityID, ev.WorkspaceName, action)
	duration := time.Since(start)

	completed := events.SyncCompleted{
		JobID:       jobID,
		PageID:      ev.EntityID,
		Workspace:   ev.WorkspaceName,
		EventAction: string(action),
		Path:        string(path),
		TaskID:      report.TaskID,
		Duration:    duration,
		CompletedAt: time.Now(),
	}

	if err != nil {
		completed.Result = "error"
		completed.Error = err.Error()
		d.rec.ObserveSyncDuration(string(action), duration, false)
		d.rec.IncSyncResult(string(action), string(path), "error")
		log.Error("sync failed", logfields.Error(err), logfields.DurationMS(float64(duration.Milliseconds())))
	} else {
		completed.Result = "success"
		completed.Created = report.Result == syncpkg.ResultCreated
		completed.Completed = report.Result == syncpkg.ResultCompleted
		completed.Deleted = report.Result == syncpkg.ResultDeleted
		d.rec.ObserveSyncDuration(string(action), duration, true)
		d.rec.IncSyncResult(string(action), string(path), string(report.Result))
		log.Info("sync finished",
			slog.String("result", string(report.Result)),
			logfields.TaskID(report.TaskID),
			logfields.DurationMS(float64(duration.Milliseconds())))
	}

	if pubErr := d.bus.Publish(ctx, completed); pubErr != nil {
		log.Warn("failed to publish sync event", logfields.Error(pubErr))
	}
	return err
}
