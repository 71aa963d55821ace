package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncWebhookEvent("notion", "processed")
	r.IncDebounceCollapse()
	r.SetPendingDeferrals(3)
	r.SetCooldownEntries(2)
	r.ObserveSyncDuration("update", time.Second, true)
	r.IncSyncResult("create", "immediate", "success")
	r.IncStatusPush("success")
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncWebhookEvent("notion", "scheduled")
	pr.IncWebhookEvent("notion", "scheduled")
	pr.IncDebounceCollapse()
	pr.SetPendingDeferrals(1)
	pr.SetCooldownEntries(4)
	pr.ObserveSyncDuration("update", 120*time.Millisecond, true)
	pr.IncSyncResult("update", "deferred", "error")
	pr.IncStatusPush("success")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"tasksync_webhook_events_total",
		"tasksync_debounce_collapses_total",
		"tasksync_pending_deferrals",
		"tasksync_cooldown_entries",
		"tasksync_sync_duration_seconds",
		"tasksync_sync_results_total",
		"tasksync_status_pushes_total",
	} {
		require.True(t, names[want], "missing metric %s", want)
	}
}
