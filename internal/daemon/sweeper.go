package daemon

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/tasksync/internal/debounce"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
)

// Sweeper runs the coordinator's catch-up pass on a fixed interval. Timers
// normally fire deferrals on their own; the sweep picks up anything a missed
// or stopped timer left behind, and garbage collects stale cooldown records.
type Sweeper struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
}

// NewSweeper schedules SweepExpired and GC every interval.
func NewSweeper(coord *debounce.Coordinator, interval time.Duration, log *slog.Logger) (*Sweeper, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create sweep scheduler").Build()
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			swept := coord.SweepExpired()
			collected := coord.GC()
			if swept > 0 || collected > 0 {
				log.Debug("sweep pass",
					slog.Int("fired", swept),
					slog.Int("gc_removed", collected))
			}
		}),
		gocron.WithName("debounce-sweep"),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "schedule sweep job").Build()
	}

	return &Sweeper{scheduler: s, log: log}, nil
}

// Start begins the periodic job.
func (s *Sweeper) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "sweep scheduler shutdown").Build()
	}
	return nil
}
