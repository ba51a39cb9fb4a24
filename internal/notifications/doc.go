// Package notifications publishes cycle outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to nil-check.
package notifications
