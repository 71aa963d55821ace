// Package eventmirror publishes sync outcomes to NATS for external
// observers. The mirror is optional: with no NATS URL configured, nothing is
// wired and the rest of the service is unaffected.
package eventmirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/tasksync/internal/events"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
)

const defaultSubject = "tasksync.sync.completed"

// Config carries the NATS connection settings.
type Config struct {
	URL     string
	Subject string
}

// Mirror owns the NATS connection and republishes bus events.
type Mirror struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// New connects to NATS. Call Close when done.
func New(cfg Config, log *slog.Logger) (*Mirror, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ferrors.ConfigError("nats url is required").Build()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("tasksync"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "connect to nats").Build()
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("event mirror connected", "url", cfg.URL, "subject", subject)
	return &Mirror{conn: conn, subject: subject, log: log}, nil
}

// Consume subscribes to SyncCompleted events and mirrors each one until ctx
// is cancelled. Publish failures are logged, never fatal.
func (m *Mirror) Consume(ctx context.Context, bus *events.Bus) {
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
			m.publish(ev)
		}
	}
}

func (m *Mirror) publish(ev events.SyncCompleted) {
	data, err := json.Marshal(ev)
	if err != nil {
		m.log.Error("failed to marshal sync event", logfields.Error(err))
		return
	}
	if err := m.conn.Publish(m.subject, data); err != nil {
		m.log.Warn("failed to mirror sync event",
			logfields.PageID(ev.PageID), logfields.Error(err))
	}
}

// Close drains and closes the connection.
func (m *Mirror) Close() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Drain(); err != nil {
		m.conn.Close()
	}
}
