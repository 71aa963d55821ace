package handlers

import (
	"context"
	"net/http"

	"git.home.luguber.info/inful/tasksync/internal/debounce"
	"git.home.luguber.info/inful/tasksync/internal/history"
	"git.home.luguber.info/inful/tasksync/internal/server/responses"
	"git.home.luguber.info/inful/tasksync/internal/version"
)

// ConfigFlags reports which optional settings are active, read per request so
// hot reloads show up.
type ConfigFlags func() (watchUserSet, enrichmentOn, secretSet bool)

// RunCounter is the slice of the history store the status view needs.
type RunCounter interface {
	Totals(ctx context.Context) (history.Counts, error)
}

// StatusHandler serves GET /webhooks/notion with diagnostic state.
type StatusHandler struct {
	coord *debounce.Coordinator
	flags ConfigFlags
	runs  RunCounter // nil when history is disabled
}

// NewStatusHandler constructs the diagnostic status handler.
func NewStatusHandler(coord *debounce.Coordinator, flags ConfigFlags, runs RunCounter) *StatusHandler {
	if flags == nil {
		flags = func() (bool, bool, bool) { return false, false, false }
	}
	return &StatusHandler{coord: coord, flags: flags, runs: runs}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats := h.coord.Snapshot()
	watchUser, enrichment, secret := h.flags()

	resp := responses.StatusResponse{
		Service:          "tasksync",
		WatchUserSet:     watchUser,
		EnrichmentOn:     enrichment,
		SecretConfigured: secret,
		PendingDeferrals: stats.Pending,
		CooldownEntries:  stats.Cooldown,
		DebounceWindowMS: stats.WindowMS,
	}
	if h.runs != nil {
		if counts, err := h.runs.Totals(r.Context()); err == nil {
			resp.Runs = &responses.RunCounts{
				Total:   counts.Total,
				Success: counts.Success,
				Failed:  counts.Failed,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthHandler serves GET /healthz.
type HealthHandler struct{}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, responses.HealthResponse{
		Status:  "ok",
		Version: version.Version,
	})
}
