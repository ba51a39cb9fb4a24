package classify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventsift/internal/classify"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/services"
	"eventsift/internal/store"
	"eventsift/internal/testsupport"
)

type stubCompleter struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, user)
	return s.reply, s.err
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
}

func TestClassifyAppliesAsymmetricVerdicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	past := testsupport.SeedEvent(t, st, events.Candidate{Title: "AI Meetup", Date: "2020-01-01"})
	future := testsupport.SeedEvent(t, st, events.Candidate{Title: "ml workshop!!", Date: "next month"})

	reply := fmt.Sprintf(`[
  {"id": %d, "is_valid": false, "cleaned_title": "AI Meetup (past)", "category": "Meetup", "confidence": 0.4, "date": "2020-01-01"},
  {"id": %d, "is_valid": true, "cleaned_title": "ML Workshop", "category": "Workshop", "confidence": 0.85, "date": "2030-02-01"}
]`, past.ID, future.ID)
	completer := &stubCompleter{reply: reply}
	c := classify.New(cfg, completer, st, logging.NewNop(), classify.WithClock(fixedClock))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Accepted != 1 || summary.Rejected != 1 || summary.Sent != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	got := testsupport.MustGet(t, st, past.ID)
	if got.Status.Valid() || got.Status.Confidence != 0.4 || got.Title != "AI Meetup" || got.Category != "" {
		t.Fatalf("rejected record must keep scraped content, got %+v", got)
	}
	got = testsupport.MustGet(t, st, future.ID)
	if !got.Status.Valid() || got.Status.Confidence != 0.85 {
		t.Fatalf("expected accepted(0.85), got %v", got.Status)
	}
	if got.Title != "ML Workshop" || got.Category != events.CategoryWorkshop || got.Date != "2030-02-01" {
		t.Fatalf("accepted record must be overwritten, got %+v", got)
	}

	if !strings.Contains(completer.prompts[0], "Today is 2026-10-14") {
		t.Fatalf("prompt should carry the call date: %s", completer.prompts[0])
	}
}

func TestClassifyMalformedReplyMutatesNothing(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"not json", "Sorry, I cannot help with that.", nil},
		{"object", `{"events": []}`, nil},
		{"null", `null`, nil},
		{"unreachable", "", errors.New("dial tcp: connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			st := testsupport.MustOpenStore(t, cfg)
			event := testsupport.SeedEvent(t, st, events.Candidate{Title: "Go Night"})

			c := classify.New(cfg, &stubCompleter{reply: tt.reply, err: tt.err}, st, logging.NewNop())
			_, err := c.Run(context.Background())
			if !errors.Is(err, services.ErrClassification) {
				t.Fatalf("expected ErrClassification, got %v", err)
			}
			if got := testsupport.MustGet(t, st, event.ID); got.Status != events.Unverified() {
				t.Fatalf("record must stay unverified, got %v", got.Status)
			}
		})
	}
}

func TestClassifySkipsEntriesWithoutKnownID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	event := testsupport.SeedEvent(t, st, events.Candidate{Title: "Go Night"})

	reply := fmt.Sprintf("```json\n[{\"is_valid\": true, \"confidence\": 0.9}, {\"id\": 999, \"is_valid\": true, \"confidence\": 0.9}, {\"id\": \"%d\", \"is_valid\": \"true\", \"confidence\": \"0.95\", \"category\": \"Party\"}]\n```", event.ID)
	c := classify.New(cfg, &stubCompleter{reply: reply}, st, logging.NewNop())
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 2 || summary.Accepted != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	got := testsupport.MustGet(t, st, event.ID)
	if got.Title != "Go Night" || got.Category != events.CategoryOther {
		t.Fatalf("empty cleaned_title keeps title and unknown category maps to Other, got %+v", got)
	}
}

func TestThresholdAboveFloorRejects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Classifier.ConfidenceThreshold = 0.8
	st := testsupport.MustOpenStore(t, cfg)
	event := testsupport.SeedEvent(t, st, events.Candidate{Title: "Go Night"})

	reply := fmt.Sprintf(`[{"id": %d, "is_valid": true, "cleaned_title": "X", "confidence": 0.75}]`, event.ID)
	if _, err := classify.New(cfg, &stubCompleter{reply: reply}, st, logging.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testsupport.MustGet(t, st, event.ID)
	if got.Status != events.Rejected(0.75) || got.Title != "Go Night" {
		t.Fatalf("expected rejected(0.75) with original title, got %+v", got)
	}
}

func TestRunSelectsNewestFirstAndBoundsBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Classifier.BatchSize = 2
	cfg.Classifier.MaxBatches = 2
	st := testsupport.MustOpenStore(t, cfg)
	var ids []int64
	for i := range 5 {
		ids = append(ids, testsupport.SeedEvent(t, st, events.Candidate{Title: fmt.Sprintf("event %d", i)}).ID)
		time.Sleep(2 * time.Millisecond)
	}

	completer := &stubCompleter{reply: `[]`}
	summary, err := classify.New(cfg, completer, st, logging.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if completer.calls != 2 || summary.Sent != 4 || summary.Unanswered != 4 {
		t.Fatalf("expected two batches of two, got calls=%d %+v", completer.calls, summary)
	}

	var payload struct {
		Events []struct {
			ID int64 `json:"id"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(completer.prompts[0]), &payload); err != nil {
		t.Fatalf("prompt is not JSON: %v", err)
	}
	if len(payload.Events) != 2 || payload.Events[0].ID != ids[4] || payload.Events[1].ID != ids[3] {
		t.Fatalf("expected newest records first, got %+v", payload.Events)
	}
	if err := json.Unmarshal([]byte(completer.prompts[1]), &payload); err != nil {
		t.Fatalf("prompt is not JSON: %v", err)
	}
	if payload.Events[0].ID != ids[2] {
		t.Fatalf("second batch must not resend records, got %+v", payload.Events)
	}
}

func TestDecodeVerdictsTolerance(t *testing.T) {
	verdicts, skipped, err := classify.DecodeVerdicts(`Here you go: [{"id": 3, "is_valid": 1, "confidence": 1.7, "date": null}]`)
	if err != nil {
		t.Fatalf("DecodeVerdicts: %v", err)
	}
	if skipped != 0 || len(verdicts) != 1 {
		t.Fatalf("unexpected decode %+v skipped=%d", verdicts, skipped)
	}
	want := events.Verdict{ID: 3, IsValid: true, Category: events.CategoryOther, Confidence: 1}
	if verdicts[0] != want {
		t.Fatalf("verdict = %+v, want %+v", verdicts[0], want)
	}
}

func TestClassifyOverHTTP(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	event := testsupport.SeedEvent(t, st, events.Candidate{Title: "Go Night", Date: "2030-01-01"})

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		content := fmt.Sprintf(`[{"id": %d, "is_valid": true, "cleaned_title": "Go Night", "category": "Meetup", "confidence": 0.9, "date": "2030-01-01"}]`, event.ID)
		resp := map[string]any{"choices": []map[string]any{{"message": map[string]any{"content": content}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()
	cfg.Classifier.BaseURL = srv.URL
	cfg.Classifier.APIKey = "secret"

	c := classify.New(cfg, classify.NewCompleter(cfg), st, logging.NewNop())
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if got := testsupport.MustGet(t, st, event.ID); got.Category != events.CategoryMeetup || !got.Status.Valid() {
		t.Fatalf("unexpected record %+v", got)
	}
}

var _ classify.Store = (*store.Store)(nil)
