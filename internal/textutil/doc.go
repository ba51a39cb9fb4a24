// Package textutil provides the small text helpers shared by the ingestion
// and cleaning stages.
//
// The primary use cases are:
//   - Deriving the provisional source_id identity hint for a candidate event
//   - Building normalized comparison keys for semantic deduplication
//   - Collapsing whitespace and truncating scraped text to column bounds
//
// Casing goes through golang.org/x/text so non-ASCII titles fold the same way
// regardless of the record's source.
package textutil
