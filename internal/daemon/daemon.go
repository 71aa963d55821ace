// Package daemon is the composition root: it wires the webhook endpoints,
// the debounce coordinator, the sync orchestrator, the history store, and
// the periodic sweep job into one long-running service.
package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/tasksync/internal/config"
	"git.home.luguber.info/inful/tasksync/internal/debounce"
	"git.home.luguber.info/inful/tasksync/internal/enrich"
	"git.home.luguber.info/inful/tasksync/internal/eventmirror"
	"git.home.luguber.info/inful/tasksync/internal/events"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/history"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/metrics"
	"git.home.luguber.info/inful/tasksync/internal/notion"
	"git.home.luguber.info/inful/tasksync/internal/server/handlers"
	"git.home.luguber.info/inful/tasksync/internal/server/httpserver"
	syncpkg "git.home.luguber.info/inful/tasksync/internal/sync"
	"git.home.luguber.info/inful/tasksync/internal/todoist"
)

// Daemon owns every long-lived component of the service.
type Daemon struct {
	cfg  atomic.Pointer[config.Config]
	orch atomic.Pointer[syncpkg.Orchestrator]

	log *slog.Logger
	rec metrics.Recorder
	bus *events.Bus

	notionClient  *notion.Client
	todoistClient *todoist.Client
	coordinator   *debounce.Coordinator
	httpServer    *httpserver.Server
	historyStore  *history.Store
	mirror        *eventmirror.Mirror
	sweeper       *Sweeper
	watcher       *config.Watcher
	configPath    string

	consumersDone context.CancelFunc
}

// New assembles a daemon from configuration. configPath may be empty; when
// set, the file is watched for hot reloads.
func New(cfg *config.Config, configPath string, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	d := &Daemon{
		log:        logger,
		rec:        metrics.NewPrometheusRecorder(registry),
		bus:        events.NewBus(),
		configPath: configPath,
	}
	d.cfg.Store(cfg)

	notionClient, err := notion.New(notion.Config{
		Token:      cfg.Notion.Token,
		APIVersion: cfg.Notion.APIVersion,
	})
	if err != nil {
		return nil, err
	}
	d.notionClient = notionClient

	todoistClient, err := todoist.New(todoist.Config{Token: cfg.Todoist.Token})
	if err != nil {
		return nil, err
	}
	d.todoistClient = todoistClient

	if err := d.buildOrchestrator(cfg); err != nil {
		return nil, err
	}

	coordinator, err := debounce.New(d.syncHandler, debounce.Config{
		Window:   cfg.Window(),
		Recorder: d.rec,
		Bus:      d.bus,
	})
	if err != nil {
		return nil, err
	}
	d.coordinator = coordinator

	historyStore, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	d.historyStore = historyStore

	if cfg.NATS.URL != "" {
		mirror, err := eventmirror.New(eventmirror.Config{
			URL:     cfg.NATS.URL,
			Subject: cfg.NATS.Subject,
		}, logger)
		if err != nil {
			return nil, err
		}
		d.mirror = mirror
	}

	adapter := ferrors.NewHTTPErrorAdapter(logger)
	d.httpServer = httpserver.New(cfg.Server.Addr, httpserver.Handlers{
		Forward: handlers.NewForwardHandler(coordinator, adapter, d.rec, logger),
		Status: handlers.NewStatusHandler(coordinator, func() (bool, bool, bool) {
			c := d.cfg.Load()
			return c.Notion.WatchUserID != "", c.Enrichment.Enabled, c.Todoist.WebhookSecret != ""
		}, historyStore),
		Reverse: handlers.NewReverseHandler(notionClient, func() string {
			return d.cfg.Load().Todoist.WebhookSecret
		}, d.bus, adapter, d.rec, logger),
		Health:  handlers.HealthHandler{},
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, logger, adapter)

	sweeper, err := NewSweeper(coordinator, cfg.Window()/2, logger)
	if err != nil {
		return nil, err
	}
	d.sweeper = sweeper

	return d, nil
}

// buildOrchestrator constructs the orchestrator from cfg and swaps it in.
func (d *Daemon) buildOrchestrator(cfg *config.Config) error {
	var enricher enrich.Enricher
	if cfg.Enrichment.Enabled {
		e, err := enrich.NewOpenAI(enrich.Config{
			APIKey: cfg.Enrichment.APIKey,
			Model:  cfg.Enrichment.Model,
		})
		if err != nil {
			return err
		}
		enricher = e
	}

	orch, err := syncpkg.New(syncpkg.Config{
		Source:      d.notionClient,
		Dest:        d.todoistClient,
		Enricher:    enricher,
		ProjectID:   cfg.Todoist.ProjectID,
		WatchUserID: cfg.Notion.WatchUserID,
		Logger:      d.log,
	})
	if err != nil {
		return err
	}
	d.orch.Store(orch)
	return nil
}

func (d *Daemon) orchestrator() *syncpkg.Orchestrator {
	return d.orch.Load()
}

// Start brings up consumers, the sweep job, the config watcher, and the HTTP
// listener.
func (d *Daemon) Start(ctx context.Context) error {
	consumerCtx, cancel := context.WithCancel(context.Background())
	d.consumersDone = cancel

	go history.Consume(consumerCtx, d.bus, d.historyStore, d.log)
	if d.mirror != nil {
		go d.mirror.Consume(consumerCtx, d.bus)
	}

	d.sweeper.Start()

	if d.configPath != "" {
		watcher, err := config.NewWatcher(d.configPath, d.applyConfig, d.log)
		if err != nil {
			return err
		}
		if err := watcher.Start(consumerCtx); err != nil {
			watcher.Close()
			return err
		}
		d.watcher = watcher
	}

	if err := d.httpServer.Start(ctx); err != nil {
		return err
	}

	d.log.Info("daemon started",
		"addr", d.cfg.Load().Server.Addr,
		slog.Duration("debounce_window", d.coordinator.Window()))
	return nil
}

// applyConfig takes effect for the hot-reloadable settings: watch user,
// project id, enrichment, and the webhook secret. Listener address and
// debounce window require a restart.
func (d *Daemon) applyConfig(cfg *config.Config) {
	old := d.cfg.Load()
	if err := d.buildOrchestrator(cfg); err != nil {
		d.log.Error("config reload rejected", logfields.Error(err))
		return
	}
	d.cfg.Store(cfg)

	if old.Server.Addr != cfg.Server.Addr {
		d.log.Warn("listener address change requires restart",
			"current", old.Server.Addr, "new", cfg.Server.Addr)
	}
	if old.Debounce.WindowMS != cfg.Debounce.WindowMS {
		d.log.Warn("debounce window change requires restart",
			"current_ms", old.Debounce.WindowMS, "new_ms", cfg.Debounce.WindowMS)
	}
}

// Stop tears everything down in reverse order. Pending deferrals are
// dropped; that loss is inherent to in-process timers.
func (d *Daemon) Stop(ctx context.Context) error {
	d.log.Info("daemon stopping")

	var firstErr error
	if err := d.httpServer.Stop(ctx); err != nil {
		firstErr = err
	}
	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	if err := d.sweeper.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	d.coordinator.Stop()
	if d.consumersDone != nil {
		d.consumersDone()
	}
	if d.mirror != nil {
		d.mirror.Close()
	}
	if err := d.historyStore.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	d.bus.Close()

	stats := d.coordinator.Snapshot()
	if stats.Pending > 0 {
		d.log.Warn("dropping pending deferrals on shutdown", "count", stats.Pending)
	}
	d.log.Info("daemon stopped")
	return firstErr
}

// Snapshot exposes coordinator state for callers outside the HTTP surface.
func (d *Daemon) Snapshot() debounce.Stats {
	return d.coordinator.Snapshot()
}
