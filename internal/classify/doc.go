// Package classify sends batches of unverified records to the external
// classification service and commits its verdicts.
//
// A batch fails as a whole with services.ErrClassification when the service
// is unreachable or its reply is not a JSON array; no record is mutated in
// that case. On a well-formed reply each verdict applies independently:
// acceptance at or above the confidence threshold overwrites title, category,
// and date, while rejection records only the confidence.
package classify
