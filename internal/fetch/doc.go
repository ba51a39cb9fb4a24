// Package fetch retrieves remote listing pages for the ingestion stage.
//
// A Fetcher waits a fixed minimum delay before every request, picks a client
// identity from a configured pool, and caps the body it reads. Any network
// error, timeout, or non-2xx status is reported as a services.ErrFetch failure;
// the Fetcher never retries.
package fetch
