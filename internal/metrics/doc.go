// Package metrics exposes pipeline counters on a dedicated Prometheus registry.
//
// A Recorder is safe for concurrent use. The HTTP handler is only mounted by the
// scheduler; one-shot commands record into a registry nobody scrapes.
package metrics
