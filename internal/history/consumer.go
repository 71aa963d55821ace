package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/tasksync/internal/events"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
)

// Consume subscribes to SyncCompleted events and records each one until ctx
// is cancelled. Run it in its own goroutine.
func Consume(ctx context.Context, bus *events.Bus, store *Store, log *slog.Logger) {
	ch, cancel := events.Subscribe[events.SyncCompleted](bus, 64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			run := Run{
				JobID:       ev.JobID,
				PageID:      ev.PageID,
				Workspace:   ev.Workspace,
				EventAction: ev.EventAction,
				Path:        ev.Path,
				Result:      ev.Result,
				TaskID:      ev.TaskID,
				Error:       ev.Error,
				Duration:    ev.Duration,
				CompletedAt: ev.CompletedAt,
			}
			if err := store.Append(ctx, run); err != nil {
				log.Error("failed to record sync run",
					logfields.PageID(ev.PageID), logfields.Error(err))
			}
		}
	}
}
