package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lowercases and trims text for case-insensitive comparison.
// A Caser is stateful, so one is built per call.
func Fold(value string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(value))
}

// NormalizeKey joins the folded parts into a single comparison key.
func NormalizeKey(parts ...string) string {
	folded := make([]string, len(parts))
	for i, part := range parts {
		folded[i] = Fold(part)
	}
	return strings.Join(folded, "\x1f")
}

// TitleCase converts a source tag such as "startupgrind" to a display name.
func TitleCase(value string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}

// CollapseSpace trims text and replaces internal whitespace runs with one space.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Truncate shortens value to at most limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}

// ContainsAny reports whether the folded haystack contains any of the phrases.
// Phrases are expected to be folded already.
func ContainsAny(haystack string, phrases []string) (string, bool) {
	folded := Fold(haystack)
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(folded, phrase) {
			return phrase, true
		}
	}
	return "", false
}
