// Package preflight provides readiness checks for the paths and services
// eventsift depends on.
//
// The CLI "eventsift check" command runs them before an operator schedules
// cycles. Checks never mutate stored events. Network checks against remote
// sources are opt-in because they cost one request per source.
package preflight
