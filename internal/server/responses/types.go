// Package responses defines the JSON shapes the webhook endpoints answer
// with. Intentional non-actions (ignored, deferred, skipped) are all plain
// 200 responses so upstream delivery never retries them.
package responses

// WebhookAck acknowledges a forward-pipeline delivery.
type WebhookAck struct {
	Message        string `json:"message"`
	PageID         string `json:"pageId,omitempty"`
	EventAction    string `json:"eventAction,omitempty"`
	DebounceTimeMS int64  `json:"debounceTimeMs,omitempty"`
}

// VerificationAck echoes the subscription handshake token.
type VerificationAck struct {
	VerificationToken string `json:"verification_token"`
}

// ReverseAck acknowledges a reverse-pipeline delivery.
type ReverseAck struct {
	Message string `json:"message"`
	PageID  string `json:"pageId,omitempty"`
	TaskID  string `json:"taskId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// StatusResponse is the diagnostic view served on GET /webhooks/notion.
type StatusResponse struct {
	Service          string     `json:"service"`
	WatchUserSet     bool       `json:"watchUserConfigured"`
	EnrichmentOn     bool       `json:"enrichmentEnabled"`
	SecretConfigured bool       `json:"webhookSecretConfigured"`
	PendingDeferrals int        `json:"pendingDeferrals"`
	CooldownEntries  int        `json:"cooldownEntries"`
	DebounceWindowMS int64      `json:"debounceWindowMs"`
	Runs             *RunCounts `json:"runs,omitempty"`
}

// RunCounts aggregates recorded sync runs.
type RunCounts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
