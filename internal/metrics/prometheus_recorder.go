package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	webhookEvents    *prom.CounterVec
	debounceCollapse prom.Counter
	pendingDeferrals prom.Gauge
	cooldownEntries  prom.Gauge
	syncDuration     *prom.HistogramVec
	syncResults      *prom.CounterVec
	statusPushes     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.webhookEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tasksync",
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events by pipeline and outcome",
		}, []string{"pipeline", "outcome"})
		pr.debounceCollapse = prom.NewCounter(prom.CounterOpts{
			Namespace: "tasksync",
			Name:      "debounce_collapses_total",
			Help:      "Events that superseded an already-pending deferral",
		})
		pr.pendingDeferrals = prom.NewGauge(prom.GaugeOpts{
			Namespace: "tasksync",
			Name:      "pending_deferrals",
			Help:      "Live pending deferrals held in memory",
		})
		pr.cooldownEntries = prom.NewGauge(prom.GaugeOpts{
			Namespace: "tasksync",
			Name:      "cooldown_entries",
			Help:      "Recently-processed records held in memory",
		})
		pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tasksync",
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync orchestration runs",
			Buckets:   prom.DefBuckets,
		}, []string{"action", "result"})
		pr.syncResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tasksync",
			Name:      "sync_results_total",
			Help:      "Sync run outcomes by action, path, and result",
		}, []string{"action", "path", "result"})
		pr.statusPushes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tasksync",
			Name:      "status_pushes_total",
			Help:      "Reverse-direction Notion status pushes by result",
		}, []string{"result"})
		reg.MustRegister(pr.webhookEvents, pr.debounceCollapse, pr.pendingDeferrals,
			pr.cooldownEntries, pr.syncDuration, pr.syncResults, pr.statusPushes)
	})
	return pr
}

func (pr *PrometheusRecorder) IncWebhookEvent(pipeline, outcome string) {
	pr.webhookEvents.WithLabelValues(pipeline, outcome).Inc()
}

func (pr *PrometheusRecorder) IncDebounceCollapse() {
	pr.debounceCollapse.Inc()
}

func (pr *PrometheusRecorder) SetPendingDeferrals(n int) {
	pr.pendingDeferrals.Set(float64(n))
}

func (pr *PrometheusRecorder) SetCooldownEntries(n int) {
	pr.cooldownEntries.Set(float64(n))
}

func (pr *PrometheusRecorder) ObserveSyncDuration(action string, d time.Duration, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	pr.syncDuration.WithLabelValues(action, result).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncSyncResult(action, path, result string) {
	pr.syncResults.WithLabelValues(action, path, result).Inc()
}

func (pr *PrometheusRecorder) IncStatusPush(result string) {
	pr.statusPushes.WithLabelValues(result).Inc()
}
