package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/fetch"
	"eventsift/internal/ingest"
	"eventsift/internal/logging"
	"eventsift/internal/store"
	"eventsift/internal/testsupport"
)

const listingPage = `<html><body>
<article data-event-id="1"><h2>Go Night</h2><span data-spec="date">3 Mar 2030</span></article>
<article data-event-id="2"><h2>Rust Night</h2></article>
</body></html>`

func newSourcesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/eventbrite", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/community", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<a href="/w/1">Beginners Workshop</a>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestAllContinuesPastFailedSource(t *testing.T) {
	srv := newSourcesServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSources(
		config.Source{URL: srv.URL + "/broken", Type: "eventbrite"},
		config.Source{URL: srv.URL + "/eventbrite", Type: "eventbrite"},
		config.Source{URL: srv.URL + "/community", Type: "codebar"},
	))
	st := testsupport.MustOpenStore(t, cfg)
	ing := ingest.New(cfg, fetch.New(cfg), st, logging.NewNop())

	summary := ing.IngestAll(context.Background())
	if summary.Sources != 3 || summary.SourcesFailed != 1 {
		t.Fatalf("unexpected source counts %+v", summary)
	}
	if summary.Found != 3 || summary.Inserted != 3 {
		t.Fatalf("expected 3 found and inserted, got %+v", summary)
	}

	list := testsupport.MustList(t, st)
	if len(list) != 3 {
		t.Fatalf("expected 3 stored records, got %d", len(list))
	}
	for _, event := range list {
		if event.Status != events.Unverified() {
			t.Fatalf("new records must be unverified, got %+v", event)
		}
	}
	if list[2].SourceURL != srv.URL+"/w/1" || list[2].SourceName != "Codebar" {
		t.Fatalf("unexpected generic record %+v", list[2])
	}
}

func TestIngestTwiceAddsNothing(t *testing.T) {
	srv := newSourcesServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSources(
		config.Source{URL: srv.URL + "/eventbrite", Type: "eventbrite"},
	))
	st := testsupport.MustOpenStore(t, cfg)
	ing := ingest.New(cfg, fetch.New(cfg), st, logging.NewNop())

	first := ing.IngestAll(context.Background())
	second := ing.IngestAll(context.Background())
	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserted on first pass, got %+v", first)
	}
	if second.Inserted != 0 || second.Existing != 2 {
		t.Fatalf("expected no new records on second pass, got %+v", second)
	}
	if got := len(testsupport.MustList(t, st)); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}
}

type failingStore struct{ inserts int }

func (f *failingStore) ExistsBySourceID(context.Context, string) (bool, error) { return false, nil }

func (f *failingStore) Insert(context.Context, events.Candidate) (*events.Event, error) {
	f.inserts++
	if f.inserts == 1 {
		return nil, fmt.Errorf("disk full")
	}
	return &events.Event{ID: int64(f.inserts)}, nil
}

func TestIngestCountsInsertErrors(t *testing.T) {
	srv := newSourcesServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSources(
		config.Source{URL: srv.URL + "/eventbrite", Type: "eventbrite"},
	))
	st := &failingStore{}
	summary := ingest.New(cfg, fetch.New(cfg), st, logging.NewNop()).IngestAll(context.Background())
	if summary.Errors != 1 || summary.Inserted != 1 {
		t.Fatalf("expected one error and one insert, got %+v", summary)
	}
}

// staleExistsStore reports every source_id as unseen, as when another writer
// inserts between the existence check and the insert.
type staleExistsStore struct{ *store.Store }

func (staleExistsStore) ExistsBySourceID(context.Context, string) (bool, error) { return false, nil }

func TestIngestCountsUniqueViolationAsError(t *testing.T) {
	srv := newSourcesServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSources(
		config.Source{URL: srv.URL + "/eventbrite", Type: "eventbrite"},
	))
	st := testsupport.MustOpenStore(t, cfg)
	first := ingest.New(cfg, fetch.New(cfg), st, logging.NewNop()).IngestAll(context.Background())
	if first.Inserted == 0 {
		t.Fatalf("expected first pass to insert, got %+v", first)
	}

	second := ingest.New(cfg, fetch.New(cfg), staleExistsStore{st}, logging.NewNop()).IngestAll(context.Background())
	if second.Errors != first.Inserted || second.Existing != 0 || second.Inserted != 0 {
		t.Fatalf("expected constraint violations counted as errors, got %+v", second)
	}
	if got := len(testsupport.MustList(t, st)); got != first.Inserted {
		t.Fatalf("expected %d stored records, got %d", first.Inserted, got)
	}

	_, err := st.Insert(context.Background(), events.Candidate{SourceID: testsupport.MustList(t, st)[0].SourceID, Title: "again"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate marker from the store, got %v", err)
	}
}
