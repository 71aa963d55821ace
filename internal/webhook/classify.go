package webhook

// Action is the sync action derived from a webhook event type.
type Action string

const (
	ActionIgnore      Action = "ignore"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionSkipDeleted Action = "skip-page-deleted"
)

// Classification pairs an action with a human-readable reason for the
// non-actionable cases.
type Classification struct {
	Action Action
	Reason string
}

// Actionable reports whether the classification should reach the coordinator.
func (c Classification) Actionable() bool {
	return c.Action == ActionCreate || c.Action == ActionUpdate
}

// Classify maps a raw event type string to a sync action. It is a total
// function: any unrecognized or empty type maps to ignore, never an error.
func Classify(eventType string) Classification {
	switch eventType {
	case "page.deleted":
		// Distinct from generic ignore so callers can surface it differently.
		return Classification{Action: ActionSkipDeleted, Reason: "page deleted"}
	case "page.updated", "page.content_updated", "page.property_updated", "page.properties_updated":
		return Classification{Action: ActionUpdate}
	case "page.created":
		return Classification{Action: ActionCreate}
	default:
		return Classification{Action: ActionIgnore, Reason: "not relevant"}
	}
}
