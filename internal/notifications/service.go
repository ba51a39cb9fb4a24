package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eventsift/internal/config"
)

const userAgent = "eventsift/1.0"

// CycleSummary is the notification view of a finished cycle.
type CycleSummary struct {
	CycleID      string
	Mode         string
	StagesFailed []string
	Duration     time.Duration
	Total        int
	Valid        int
	Rejected     int
	Unverified   int
	Interrupted  bool
}

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyCycleCompleted(ctx context.Context, summary CycleSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		eachCycle: cfg.Notifications.NotifyEachCycle,
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	eachCycle bool
}

// NotifyCycleCompleted always reports cycles with failed stages; clean cycles
// are only reported when notify_each_cycle is set.
func (n *ntfyService) NotifyCycleCompleted(ctx context.Context, summary CycleSummary) error {
	failed := len(summary.StagesFailed) > 0
	if !failed && !summary.Interrupted && !n.eachCycle {
		return nil
	}

	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	mode := strings.TrimSpace(summary.Mode)
	if mode == "" {
		mode = "run"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s cycle finished in %s\n", mode, duration)
	fmt.Fprintf(&b, "Events: %d total, %d valid, %d rejected, %d unverified",
		summary.Total, summary.Valid, summary.Rejected, summary.Unverified)
	if failed {
		fmt.Fprintf(&b, "\nFailed stages: %s", strings.Join(summary.StagesFailed, ", "))
	}
	if summary.Interrupted {
		b.WriteString("\nCycle interrupted before completion")
	}

	data := payload{
		title:   "eventsift - Cycle Complete",
		message: b.String(),
		tags:    []string{"eventsift", "cycle", "completed"},
	}
	if failed {
		data.title = "eventsift - Cycle Complete (with errors)"
		data.tags = []string{"eventsift", "cycle", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "eventsift - Error",
		message:  builder.String(),
		tags:     []string{"eventsift", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "eventsift - Test",
		message:  "Notification system test",
		tags:     []string{"eventsift", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCycleCompleted(context.Context, CycleSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
