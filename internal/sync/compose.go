package sync

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/tasksync/internal/backref"
	"git.home.luguber.info/inful/tasksync/internal/util/sets"
)

var tagSanitizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeWorkspaceTag turns a free-form workspace name into a label: fold
// diacritics, lowercase, replace runs of non-alphanumerics with a dash.
func SanitizeWorkspaceTag(name string) string {
	folded, _, err := transform.String(tagSanitizer, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// composeTags merges the source tags with the sanitized workspace tag,
// deduplicated and sorted for stable output.
func composeTags(base []string, workspace string) []string {
	tags := sets.New(base...)
	if ws := SanitizeWorkspaceTag(workspace); ws != "" {
		tags.Add(ws)
	}
	out := tags.Values()
	sort.Strings(out)
	return out
}

// composeBody appends the back-reference link and workspace annotation to the
// source body. The link is what makes later syncs convergent.
func composeBody(body, pageID, workspace string) string {
	var b strings.Builder
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(backref.Link(pageID))
	if workspace != "" {
		b.WriteString("\nWorkspace: ")
		b.WriteString(workspace)
	}
	return b.String()
}
