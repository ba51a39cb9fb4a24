// Package logging assembles structured slog loggers and formatting helpers used
// across eventsift.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code automatically tags log lines
// with cycle IDs, stage names, sources, and event record IDs. Each CLI run writes
// to stdout and a dedicated JSON log file; PruneRunLogs enforces retention.
package logging
