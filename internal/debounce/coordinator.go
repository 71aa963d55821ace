// Package debounce implements the per-page webhook debounce coordinator.
//
// Notion delivers near-duplicate notifications for the same page in rapid
// succession. The coordinator collapses each burst into a single sync run:
// the first event for an idle page runs immediately, everything arriving
// inside the debounce window is deferred and superseded by later events, and
// only the latest event of a burst ever reaches the orchestrator.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/tasksync/internal/events"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/metrics"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

// DefaultWindow is the minimum spacing enforced between two sync runs for the
// same page.
const DefaultWindow = 60 * time.Second

// Path tells the handler whether a caller is waiting on the result.
type Path string

const (
	PathImmediate Path = "immediate"
	PathDeferred  Path = "deferred"
)

// Handler executes one sync run. On PathImmediate the returned error reaches
// the webhook caller; on PathDeferred nobody is waiting and the handler's own
// logging is the only failure signal.
type Handler func(ctx context.Context, ev webhook.Event, action webhook.Action, path Path) error

// Decision is the coordinator's answer for one inbound event.
type Decision string

const (
	DecisionProcessed Decision = "processed"
	DecisionScheduled Decision = "scheduled"
)

// Outcome reports what the coordinator did with an event.
type Outcome struct {
	Decision Decision
	FireIn   time.Duration // populated when scheduled
	Err      error         // immediate-path handler error
}

// Config carries coordinator tuning. Zero values fall back to defaults.
type Config struct {
	Window      time.Duration
	FireTimeout time.Duration    // budget for a deferred run, no caller is waiting
	Now         func() time.Time // injectable clock for tests
	Recorder    metrics.Recorder
	Bus         *events.Bus // optional; receives DeferralScheduled events
}

// deferral is the debounce unit: at most one live deferral per page id.
type deferral struct {
	event     webhook.Event
	action    webhook.Action
	timer     *time.Timer
	gen       uint64 // invalidates stale timer callbacks after a replace
	fireAt    time.Time
	createdAt time.Time
	updatedAt time.Time
}

// Coordinator owns the two in-memory maps (pending deferrals and
// recently-processed records) behind a mutex. The runtime is preemptive, so
// unlike a cooperative single-threaded port every map mutation is locked.
type Coordinator struct {
	mu          sync.Mutex
	window      time.Duration
	fireTimeout time.Duration
	handler     Handler
	now         func() time.Time
	rec         metrics.Recorder
	bus         *events.Bus
	pending     map[string]*deferral
	processed   map[string]time.Time
	nextGen     uint64
}

// New constructs a Coordinator around the given sync handler.
func New(handler Handler, cfg Config) (*Coordinator, error) {
	if handler == nil {
		return nil, ferrors.ValidationError("handler is required").Build()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.FireTimeout <= 0 {
		cfg.FireTimeout = 2 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &Coordinator{
		window:      cfg.Window,
		fireTimeout: cfg.FireTimeout,
		handler:     handler,
		now:         cfg.Now,
		rec:         cfg.Recorder,
		bus:         cfg.Bus,
		pending:     make(map[string]*deferral),
		processed:   make(map[string]time.Time),
	}, nil
}

// Window returns the configured debounce window.
func (c *Coordinator) Window() time.Duration { return c.window }

// HandleEvent routes one classified event. Idle pages run synchronously for
// the caller's request lifetime; pages inside a cooldown window or with a
// pending deferral get their deferral (re)scheduled, discarding any earlier
// captured event entirely.
func (c *Coordinator) HandleEvent(ctx context.Context, ev webhook.Event, action webhook.Action) Outcome {
	// Best-effort catch-up for deferrals whose timer never ran.
	c.SweepExpired()

	now := c.now()
	id := ev.EntityID

	c.mu.Lock()
	c.gcLocked(now)

	last, hasLast := c.processed[id]
	cooling := hasLast && now.Sub(last) < c.window

	if d, exists := c.pending[id]; exists || cooling {
		fireAt := now.Add(c.window)
		if cooling && last.Add(c.window).After(fireAt) {
			// Never fire earlier than a full window after the last run.
			fireAt = last.Add(c.window)
		}

		c.nextGen++
		gen := c.nextGen

		if exists {
			// Replace atomically: the old handle is dead before the new one exists.
			d.timer.Stop()
			d.event = ev
			d.action = action
			d.updatedAt = now
			c.rec.IncDebounceCollapse()
		} else {
			d = &deferral{event: ev, action: action, createdAt: now, updatedAt: now}
			c.pending[id] = d
		}
		d.gen = gen
		d.fireAt = fireAt
		d.timer = time.AfterFunc(fireAt.Sub(now), func() { c.fire(id, gen) })
		c.updateGaugesLocked()
		c.mu.Unlock()

		fireIn := fireAt.Sub(now)
		if c.bus != nil {
			_ = c.bus.Publish(ctx, events.DeferralScheduled{
				PageID:      id,
				EventType:   ev.Type,
				EventAction: string(action),
				FireIn:      fireIn,
				ScheduledAt: now,
			})
		}
		return Outcome{Decision: DecisionScheduled, FireIn: fireIn}
	}

	// Immediate path. The cooldown record is written before the run starts so
	// a near-simultaneous request for the same page observes it and defers;
	// writing it after the run would let both fire.
	c.processed[id] = now
	c.updateGaugesLocked()
	c.mu.Unlock()

	err := c.handler(ctx, ev, action, PathImmediate)
	if err != nil {
		// Roll back so the sender's retry is not blocked by a false cooldown.
		c.mu.Lock()
		if ts, ok := c.processed[id]; ok && ts.Equal(now) {
			delete(c.processed, id)
		}
		c.updateGaugesLocked()
		c.mu.Unlock()
	}
	return Outcome{Decision: DecisionProcessed, Err: err}
}

// fire runs when a deferral's timer elapses. A stale generation means the
// deferral was superseded after this timer was armed; the newer timer owns it.
func (c *Coordinator) fire(id string, gen uint64) {
	now := c.now()

	c.mu.Lock()
	d, ok := c.pending[id]
	if !ok || d.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	// The slot is consumed even if the run fails. Deferred failures do not
	// roll back processedAt; reopening the window here would turn one flaky
	// burst into a retry storm.
	c.processed[id] = now
	c.updateGaugesLocked()
	ev, action := d.event, d.action
	c.mu.Unlock()

	c.runDeferred(ev, action)
}

func (c *Coordinator) runDeferred(ev webhook.Event, action webhook.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), c.fireTimeout)
	defer cancel()

	if err := c.handler(ctx, ev, action, PathDeferred); err != nil {
		// No caller is waiting; this log line is the only recovery signal.
		slog.Error("Deferred sync failed",
			logfields.PageID(ev.EntityID),
			logfields.EventType(ev.Type),
			logfields.EventAction(string(action)),
			logfields.Error(err))
	}
}

// SweepExpired fires every deferral whose scheduled time has already elapsed.
// It defends against lost timers after a process recycle; it is a best-effort
// catch-up pass, not a correctness guarantee. Returns the number fired.
func (c *Coordinator) SweepExpired() int {
	now := c.now()

	c.mu.Lock()
	var due []*deferral
	for id, d := range c.pending {
		if d.fireAt.After(now) {
			continue
		}
		d.timer.Stop()
		delete(c.pending, id)
		c.processed[id] = now
		due = append(due, d)
	}
	c.updateGaugesLocked()
	c.mu.Unlock()

	for _, d := range due {
		go c.runDeferred(d.event, d.action)
	}
	return len(due)
}

// GC prunes recently-processed records older than twice the window. It also
// runs opportunistically on every HandleEvent.
func (c *Coordinator) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gcLocked(c.now())
}

func (c *Coordinator) gcLocked(now time.Time) int {
	removed := 0
	for id, ts := range c.processed {
		if now.Sub(ts) >= 2*c.window {
			delete(c.processed, id)
			removed++
		}
	}
	if removed > 0 {
		c.updateGaugesLocked()
	}
	return removed
}

// Stats describes the coordinator's in-memory state for diagnostics.
type Stats struct {
	Pending  int           `json:"pending_deferrals"`
	Cooldown int           `json:"cooldown_entries"`
	Window   time.Duration `json:"-"`
	WindowMS int64         `json:"debounce_window_ms"`
}

// Snapshot returns current map sizes for the status endpoint.
func (c *Coordinator) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Pending:  len(c.pending),
		Cooldown: len(c.processed),
		Window:   c.window,
		WindowMS: c.window.Milliseconds(),
	}
}

// Stop cancels all pending timers. Deferred events captured but not yet fired
// are dropped, which mirrors what a process recycle would do anyway.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, d := range c.pending {
		d.timer.Stop()
		delete(c.pending, id)
	}
	c.updateGaugesLocked()
}

func (c *Coordinator) updateGaugesLocked() {
	c.rec.SetPendingDeferrals(len(c.pending))
	c.rec.SetCooldownEntries(len(c.processed))
}
