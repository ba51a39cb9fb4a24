package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventsift/internal/fetch"
	"eventsift/internal/services"
	"eventsift/internal/testsupport"
)

func TestFetchReturnsBodyAndIdentity(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.UserAgents = []string{"agent-a", "agent-b"}
	f := fetch.New(cfg, fetch.WithPicker(func(n int) int { return n - 1 }))

	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(page.Body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", page.Body)
	}
	if gotUA != "agent-b" {
		t.Fatalf("expected picked user agent, got %q", gotUA)
	}
	if !strings.Contains(gotAccept, "text/html") {
		t.Fatalf("expected html accept header, got %q", gotAccept)
	}
}

func TestFetchWaitsMinimumDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MinDelayMillis = 750
	var waited time.Duration
	f := fetch.New(cfg, fetch.WithSleeper(func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}))
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if waited != 750*time.Millisecond {
		t.Fatalf("expected 750ms delay, got %s", waited)
	}
}

func TestFetchNon2xxIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := fetch.New(testsupport.NewConfig(t))
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in message, got %v", err)
	}
}

func TestFetchTimeoutIsFetchFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := fetch.New(testsupport.NewConfig(t), fetch.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MaxBodyBytes = 10
	page, err := fetch.New(cfg).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(page.Body) != 10 || !page.Truncated {
		t.Fatalf("expected truncated 10 byte body, got %d truncated=%v", len(page.Body), page.Truncated)
	}
}

func TestFetchCancelledDuringDelay(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MinDelayMillis = 10_000
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetch.New(cfg).Fetch(ctx, "http://127.0.0.1:1")
	if !errors.Is(err, services.ErrFetch) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled fetch failure, got %v", err)
	}
}
