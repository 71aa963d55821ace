package notion

import "strings"

// StatusCategory is the abstract state the reverse pipeline wants to express.
// The concrete option name depends on the user's database configuration.
type StatusCategory string

const (
	StatusCompleted  StatusCategory = "completed"
	StatusInProgress StatusCategory = "in-progress"
	StatusPending    StatusCategory = "pending"
)

// statusSynonyms categorizes common option names, including the localized
// spellings seen in real workspaces. Lowercased for comparison.
var statusSynonyms = map[StatusCategory][]string{
	StatusCompleted: {
		"done", "completed", "complete", "finished",
		"hecho", "hecha", "completado", "completada",
		"terminado", "terminada", "finalizado", "finalizada", "listo",
	},
	StatusInProgress: {
		"in progress", "in-progress", "doing", "started", "active",
		"en progreso", "en curso", "haciendo",
	},
	StatusPending: {
		"to do", "todo", "not started", "pending", "backlog",
		"pendiente", "por hacer", "sin empezar",
	},
}

// preferredName is the exact-match candidate tried first per category.
var preferredName = map[StatusCategory]string{
	StatusCompleted:  "Done",
	StatusInProgress: "In progress",
	StatusPending:    "To do",
}

// ResolveStatusOption picks the option name that best expresses category from
// a user-configured option list. Resolution order: exact preferred name,
// synonym-table match, first available option. It never fails when at least
// one option exists; an empty list yields "".
func ResolveStatusOption(options []string, category StatusCategory) string {
	if len(options) == 0 {
		return ""
	}

	if want := preferredName[category]; want != "" {
		for _, opt := range options {
			if strings.EqualFold(opt, want) {
				return opt
			}
		}
	}

	synonyms := statusSynonyms[category]
	for _, opt := range options {
		lower := strings.ToLower(strings.TrimSpace(opt))
		for _, syn := range synonyms {
			if lower == syn {
				return opt
			}
		}
	}

	return options[0]
}

// IsDoneStatus reports whether a raw status name expresses completion,
// matching against the localized synonym set.
func IsDoneStatus(status string) bool {
	lower := strings.ToLower(strings.TrimSpace(status))
	if lower == "" {
		return false
	}
	for _, syn := range statusSynonyms[StatusCompleted] {
		if lower == syn {
			return true
		}
	}
	return false
}
