// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp cycle IDs, stage names, source names, and
//     event record IDs for logging.
//   - Structured error markers plus the Wrap helper that separate contained
//     item- and stage-level failures from the fatal configuration error.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
