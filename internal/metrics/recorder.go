package metrics

import "time"

// Recorder defines observability hooks for webhook intake, debouncing, and
// sync runs. Implementations may forward to Prometheus, OpenTelemetry, etc.
// All methods must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncWebhookEvent(pipeline, outcome string) // pipeline: notion|todoist; outcome: processed|scheduled|ignored|skipped|rejected|error
	IncDebounceCollapse()
	SetPendingDeferrals(n int)
	SetCooldownEntries(n int)
	ObserveSyncDuration(action string, d time.Duration, success bool)
	IncSyncResult(action, path, result string) // path: immediate|deferred; result: success|error
	IncStatusPush(result string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncWebhookEvent(string, string)                      {}
func (NoopRecorder) IncDebounceCollapse()                                {}
func (NoopRecorder) SetPendingDeferrals(int)                             {}
func (NoopRecorder) SetCooldownEntries(int)                              {}
func (NoopRecorder) ObserveSyncDuration(string, time.Duration, bool)     {}
func (NoopRecorder) IncSyncResult(string, string, string)                {}
func (NoopRecorder) IncStatusPush(string)                                {}
