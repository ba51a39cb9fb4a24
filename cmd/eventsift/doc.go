// Package main hosts the eventsift CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration (optionally seeded from a
// .env file), opens the event store, and hands work to internal/pipeline.
// One-shot commands run a single cycle for a stage selection; schedule keeps
// cycling on an interval and serves Prometheus metrics when a bind address is
// configured. Read-only commands list stored events and print store totals.
package main
