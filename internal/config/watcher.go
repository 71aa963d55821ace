package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
)

// Watcher reloads the config file on change and hands the result to a
// callback. Reloads are debounced because editors fire several events per
// save.
type Watcher struct {
	configPath   string
	onReload     func(*Config)
	watcher      *fsnotify.Watcher
	log          *slog.Logger
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher for path. onReload receives each successfully
// reloaded config.
func NewWatcher(path string, onReload func(*Config), log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create file watcher").Build()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve config path").Build()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		configPath:   absPath,
		onReload:     onReload,
		watcher:      fw,
		log:          log,
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins watching until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	// Watching the directory survives rename-based saves.
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "watch config directory").Build()
	}
	w.log.Info("config watcher started", "path", w.configPath)

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				select {
				case w.reloadChan <- struct{}{}:
				default:
				}
			case event.Op.Has(fsnotify.Remove):
				w.log.Warn("config file removed", "path", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reloadChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounceTime)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			cfg, err := Load(w.configPath)
			if err != nil {
				w.log.Error("config reload failed, keeping previous config", logfields.Error(err))
				continue
			}
			w.log.Info("config reloaded", "path", w.configPath)
			w.onReload(cfg)
		}
	}
}
