// Package parse turns fetched listing pages into candidate events.
//
// Structured strategies exist for eventbrite, meetup, and devpost listings;
// every other source type falls back to the generic strategy, which matches
// event-like blocks by tag and class and finally by link keywords. Each
// candidate is extracted independently: a candidate that cannot be extracted
// is reported as a services.ErrParseSkip and counted, never propagated.
package parse
