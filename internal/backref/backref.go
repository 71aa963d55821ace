// Package backref recovers Notion page ids embedded in free text. Todoist task
// descriptions carry a link back to their originating page; this package is
// the only place that knows the textual encodings of that link. Extraction is
// pure and callers must branch explicitly on the not-found case.
package backref

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// notion.so URL, optionally with a slug prefix before the compact id.
	urlPattern = regexp.MustCompile(`notion\.so/(?:[A-Za-z0-9_%-]*?-)?([0-9a-fA-F]{32})\b`)
	// Hyphenated UUID form anywhere in the text.
	hyphenatedPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	// Bare 32-hex form as a fallback.
	compactPattern = regexp.MustCompile(`\b[0-9a-fA-F]{32}\b`)
)

// Extract scans text for a page reference and returns the id normalized to
// the hyphenated UUID form. The boolean is false when no reference is found.
func Extract(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range []*regexp.Regexp{urlPattern, hyphenatedPattern, compactPattern} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[len(m)-1]
		if id, ok := Normalize(candidate); ok {
			return id, true
		}
	}
	return "", false
}

// Normalize converts either id encoding (compact 32-hex or hyphenated UUID)
// to the canonical hyphenated form. Returns false for anything else.
func Normalize(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// Encodings returns every textual form of a page id that may appear in a task
// description: the hyphenated UUID and the compact hex. Used for substring
// lookups against existing tasks.
func Encodings(id string) []string {
	norm, ok := Normalize(id)
	if !ok {
		return []string{id}
	}
	return []string{norm, strings.ReplaceAll(norm, "-", "")}
}

// Link renders the canonical URL for a page id, in the compact form Notion
// itself uses in shared links.
func Link(id string) string {
	norm, ok := Normalize(id)
	if !ok {
		return "https://www.notion.so/" + id
	}
	return "https://www.notion.so/" + strings.ReplaceAll(norm, "-", "")
}
