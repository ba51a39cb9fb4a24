// Package enhance is the second data-quality pass over stored records. It
// normalizes known messy URL forms, re-checks every link with the shared
// liveness check, deletes records whose link is dead, and backfills a random
// stable identity on records that lack one. A second run over clean data
// performs no mutations.
package enhance
