package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"eventsift/internal/config"
	"eventsift/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			body:     string(data),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func serviceFor(url string, eachCycle bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.NotifyEachCycle = eachCycle
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected disabled service without a topic")
	}
	if err := svc.NotifyError(context.Background(), errors.New("x"), "scraping"); err != nil {
		t.Fatalf("noop notifier returned %v", err)
	}
}

func TestCycleNotificationFormatting(t *testing.T) {
	srv, received := ntfyServer(t, http.StatusOK)
	svc := serviceFor(srv.URL, false)
	ctx := context.Background()

	clean := notifications.CycleSummary{Mode: "run", Duration: 90 * time.Second, Total: 10, Valid: 4, Rejected: 3, Unverified: 3}
	if err := svc.NotifyCycleCompleted(ctx, clean); err != nil {
		t.Fatalf("notify clean: %v", err)
	}
	if n := len(received()); n != 0 {
		t.Fatalf("clean cycles are quiet by default, got %d messages", n)
	}

	failed := clean
	failed.StagesFailed = []string{"link_validating"}
	if err := svc.NotifyCycleCompleted(ctx, failed); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	msgs := received()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.title != "eventsift - Cycle Complete (with errors)" || msg.priority != "high" {
		t.Fatalf("unexpected headers %+v", msg)
	}
	if !strings.Contains(msg.body, "run cycle finished in 1m30s") ||
		!strings.Contains(msg.body, "10 total, 4 valid") ||
		!strings.Contains(msg.body, "Failed stages: link_validating") {
		t.Fatalf("unexpected body %q", msg.body)
	}
}

func TestEachCycleSendsCleanSummaries(t *testing.T) {
	srv, received := ntfyServer(t, http.StatusOK)
	svc := serviceFor(srv.URL, true)
	if err := svc.NotifyCycleCompleted(context.Background(), notifications.CycleSummary{Mode: "scrape"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	msgs := received()
	if len(msgs) != 1 || msgs[0].tags != "eventsift,cycle,completed" || msgs[0].priority != "" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestErrorAndTestNotifications(t *testing.T) {
	srv, received := ntfyServer(t, http.StatusOK)
	svc := serviceFor(srv.URL, false)
	ctx := context.Background()

	if err := svc.NotifyError(ctx, errors.New("lock held"), "schedule"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	msgs := received()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].body != "Error during schedule: lock held" || msgs[0].title != "eventsift - Error" {
		t.Fatalf("unexpected error message %+v", msgs[0])
	}
	if msgs[1].priority != "low" || msgs[1].title != "eventsift - Test" {
		t.Fatalf("unexpected test message %+v", msgs[1])
	}
}

func TestNtfyErrorStatusSurfaces(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusForbidden)
	svc := serviceFor(srv.URL, false)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403") {
		t.Fatalf("expected status error, got %v", err)
	}
}
