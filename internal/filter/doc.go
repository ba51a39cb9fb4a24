// Package filter deletes records whose title or location marks them as
// closed to the public. Matching is a case-insensitive substring test
// against a fixed phrase list with no stemming.
package filter
