package dedup_test

import (
	"context"
	"testing"

	"eventsift/internal/dedup"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/testsupport"
)

func TestDuplicatesKeepsSmallestID(t *testing.T) {
	list := []events.Event{
		{ID: 9, Title: "AI Meetup ", Location: "LONDON", Date: "2030-01-01"},
		{ID: 5, Title: "ai meetup", Location: "London", Date: "2030-01-01"},
		{ID: 7, Title: "AI Meetup", Location: "London", Date: "2030-01-02"},
	}
	got := dedup.Duplicates(list)
	if len(got) != 1 || got[0] != 9 {
		t.Fatalf("expected [9], got %v", got)
	}
}

func TestRemoveDuplicatesIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	keep := testsupport.SeedEvent(t, st, events.Candidate{SourceID: "a_1", Title: "Go Night", Date: "2030-01-01"})
	testsupport.SeedEvent(t, st, events.Candidate{SourceID: "b_1", Title: "go night ", Location: "london", Date: "2030-01-01"})
	testsupport.SeedEvent(t, st, events.Candidate{SourceID: "c_1", Title: "GO NIGHT", Date: "2030-01-01"})
	other := testsupport.SeedEvent(t, st, events.Candidate{SourceID: "d_1", Title: "Go Night"})

	d := dedup.New(st, logging.NewNop())
	first, err := d.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates: %v", err)
	}
	if first.Removed != 2 {
		t.Fatalf("expected 2 removed, got %+v", first)
	}
	second, err := d.RemoveDuplicates(context.Background())
	if err != nil {
		t.Fatalf("RemoveDuplicates second pass: %v", err)
	}
	if second.Removed != 0 {
		t.Fatalf("second pass must be a no-op, got %+v", second)
	}

	list := testsupport.MustList(t, st)
	if len(list) != 2 || list[0].ID != keep.ID || list[1].ID != other.ID {
		t.Fatalf("unexpected survivors %+v", list)
	}
}
