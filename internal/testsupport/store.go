package testsupport

import (
	"context"
	"testing"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedEvent inserts a candidate record for tests using the provided store.
// Empty Location and SourceName fields receive test defaults.
func SeedEvent(t testing.TB, st *store.Store, candidate events.Candidate) *events.Event {
	t.Helper()

	if candidate.Location == "" {
		candidate.Location = "London"
	}
	if candidate.SourceName == "" {
		candidate.SourceName = "Test"
	}
	event, err := st.Insert(context.Background(), candidate)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return event
}

// MustGet fetches a record that the test expects to exist.
func MustGet(t testing.TB, st *store.Store, id int64) *events.Event {
	t.Helper()

	event, err := st.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	if event == nil {
		t.Fatalf("expected event %d to exist", id)
	}
	return event
}

// MustList returns every stored record ordered by id.
func MustList(t testing.TB, st *store.Store) []events.Event {
	t.Helper()

	list, err := st.List(context.Background(), store.ListOptions{})
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	return list
}
