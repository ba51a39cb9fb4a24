package textutil

import "strings"

// MaxSourceIDLength bounds the provisional identity derived at parse time.
const MaxSourceIDLength = 50

// SourceID derives the provisional stable identity for a candidate from its
// source prefix, title, and date. The date segment is omitted when empty.
// Spaces become underscores and the result is truncated to MaxSourceIDLength runes.
func SourceID(prefix, title, date string) string {
	parts := []string{strings.TrimSpace(prefix), strings.TrimSpace(title)}
	if date = strings.TrimSpace(date); date != "" {
		parts = append(parts, date)
	}
	id := strings.ReplaceAll(strings.Join(parts, "_"), " ", "_")
	return Truncate(id, MaxSourceIDLength)
}
