package events_test

import (
	"testing"

	"eventsift/internal/events"
)

func TestParseCategory(t *testing.T) {
	tests := map[string]events.Category{
		"hackathon":  events.CategoryHackathon,
		" Workshop ": events.CategoryWorkshop,
		"MEETUP":     events.CategoryMeetup,
		"Conference": events.CategoryConference,
		"Hacky hour": events.CategoryOther,
		"":           events.CategoryOther,
	}
	for input, want := range tests {
		if got := events.ParseCategory(input); got != want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStatusColumnsRoundTrip(t *testing.T) {
	isValid, confidence := events.Unverified().Columns()
	if isValid || confidence != nil {
		t.Fatalf("unverified should map to (false, nil), got (%v, %v)", isValid, confidence)
	}

	isValid, confidence = events.Accepted(0.85).Columns()
	if !isValid || confidence == nil || *confidence != 0.85 {
		t.Fatalf("accepted should map to (true, 0.85), got (%v, %v)", isValid, confidence)
	}
	if got := events.StatusFromColumns(isValid, confidence); got != events.Accepted(0.85) {
		t.Fatalf("round trip mismatch: %v", got)
	}

	isValid, confidence = events.Rejected(0.4).Columns()
	if isValid || confidence == nil || *confidence != 0.4 {
		t.Fatalf("rejected should map to (false, 0.4), got (%v, %v)", isValid, confidence)
	}
}

func TestAcceptedBelowFloorIsRejected(t *testing.T) {
	status := events.Accepted(0.65)
	if status.Kind != events.StatusRejected || status.Valid() {
		t.Fatalf("expected low-confidence acceptance to be rejected, got %v", status)
	}
}

func TestStatusFromColumnsNeverValidBelowFloor(t *testing.T) {
	low := 0.5
	if events.StatusFromColumns(true, &low).Valid() {
		t.Fatal("stored is_valid with low confidence must not read back as accepted")
	}
	if events.StatusFromColumns(true, nil).Valid() {
		t.Fatal("null confidence must read back as unverified")
	}
}

func TestVerdictAccepts(t *testing.T) {
	v := events.Verdict{ID: 1, IsValid: true, Confidence: 0.75}
	if !v.Accepts(0.7) {
		t.Fatal("expected acceptance at 0.7")
	}
	if v.Accepts(0.8) {
		t.Fatal("expected rejection at 0.8")
	}
	if (events.Verdict{IsValid: true, Confidence: 0.6}).Accepts(0.1) {
		t.Fatal("threshold must never drop below the acceptance floor")
	}
	if (events.Verdict{IsValid: false, Confidence: 0.95}).Accepts(0.7) {
		t.Fatal("invalid verdict must not be accepted")
	}
}

func TestStatusString(t *testing.T) {
	if got := events.Accepted(0.85).String(); got != "accepted(0.85)" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := events.Unverified().String(); got != "unverified" {
		t.Fatalf("unexpected string %q", got)
	}
}
