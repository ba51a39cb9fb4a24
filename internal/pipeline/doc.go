// Package pipeline runs the ingestion and cleaning stages as an explicit state
// machine.
//
// A cycle moves Idle → Scraping → Deduplicating → URLCleaning → Filtering →
// LinkValidating → Enhancing → Classifying → Serving, skipping states the
// selected Mode does not include. Stage failures are logged and the cycle
// advances; only a missing classifier credential stops a cycle before it
// starts. Cycles are serialized across processes with a file lock.
package pipeline
