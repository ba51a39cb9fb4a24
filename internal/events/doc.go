// Package events defines the event record model shared by every pipeline
// stage: stored events, parser candidates, classification verdicts, and the
// tagged verification status that maps onto the nullable is_valid and
// confidence_score columns.
package events
