package todoist

import "encoding/json"

// Task is the read/write model for Todoist REST tasks, reduced to the fields
// the sync pipeline touches.
type Task struct {
	ID          string   `json:"id,omitempty"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority,omitempty"` // 1 (normal) .. 4 (urgent)
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
}

// taskResponse adds the read-only due object returned by the API.
type taskResponse struct {
	Task
	Due *DueDate `json:"due,omitempty"`
}

// DueDate represents the due object from the Todoist API.
type DueDate struct {
	Date        string `json:"date"`
	String      string `json:"string"`
	IsRecurring bool   `json:"is_recurring"`
}

// WebhookPayload defines the structure of incoming Todoist webhook events.
type WebhookPayload struct {
	EventName   string          `json:"event_name"`
	UserID      string          `json:"user_id"`
	EventData   json.RawMessage `json:"event_data"`
	TriggeredAt string          `json:"triggered_at"`
}

// TaskEventData is the event_data shape for item-related webhooks.
type TaskEventData struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	ProjectID   string   `json:"project_id,omitempty"`
	Due         *DueDate `json:"due,omitempty"`
}
