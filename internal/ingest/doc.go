// Package ingest drives the fetcher and the per-source parsers over the
// configured sources and persists new candidates as unverified records.
//
// Failures are contained at the narrowest level: a source that cannot be
// fetched or parsed is logged and skipped, and a candidate that cannot be
// stored is counted as an error without aborting its source.
package ingest
