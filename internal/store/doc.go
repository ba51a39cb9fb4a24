// Package store persists event records in a durable keyed table.
//
// Two backends share one database/sql implementation: an embedded SQLite
// database (modernc.org/sqlite, the default) and PostgreSQL through the pgx
// stdlib driver. Queries are written with '?' placeholders and rebound per
// dialect. The schema enforces source_id uniqueness and that a valid record
// always carries a confidence of at least 0.7.
//
// Each operation is a single statement; there are no multi-statement
// transactions outside schema creation.
package store
