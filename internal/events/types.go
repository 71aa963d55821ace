package events

import "time"

// DeferralScheduled is emitted when the debounce coordinator (re)schedules a
// deferred sync for a page. Superseded deferrals emit a fresh event; only the
// last one per page will actually fire.
type DeferralScheduled struct {
	PageID      string
	EventType   string
	EventAction string
	FireIn      time.Duration
	ScheduledAt time.Time
}

// SyncCompleted is emitted after an orchestration run finishes, on both the
// immediate and the deferred path. Result is "success" or "error"; on the
// deferred path this event is the only signal a failure produces.
type SyncCompleted struct {
	JobID       string
	PageID      string
	Workspace   string
	EventAction string // create|update
	Path        string // immediate|deferred
	Result      string // success|error
	TaskID      string
	Created     bool
	Completed   bool
	Deleted     bool
	Error       string
	Duration    time.Duration
	CompletedAt time.Time
}

// StatusPushed is emitted by the reverse pipeline after a Todoist completion
// event was mapped onto a Notion status change.
type StatusPushed struct {
	TaskID    string
	PageID    string
	EventType string // item:completed|item:uncompleted
	Status    string
	PushedAt  time.Time
}
