// Package linkcheck decides whether a stored record's link is live.
//
// Checker issues a HEAD request with redirects followed and falls back to a
// single GET when the HEAD times out or returns a non-404 error status. The
// Validator runs the checker sequentially over the store with a fixed delay
// between requests, deletes dead records, and rewrites redirected URLs. The
// URL cleaner removes records whose link is relative or not http(s).
package linkcheck
