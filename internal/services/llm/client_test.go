package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `{"ok":true}`))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestCompleteSendsRequestSettings(t *testing.T) {
	var captured chatCompletionRequest
	var auth, title string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		title = r.Header.Get("X-Title")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, `[{"id":1}]`)(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "sk-test",
		BaseURL:     server.URL,
		Model:       "gpt-4o-mini",
		Title:       "eventsift",
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `[{"id":1}]` {
		t.Fatalf("unexpected content %q", content)
	}
	if auth != "Bearer sk-test" || title != "eventsift" {
		t.Fatalf("unexpected headers auth=%q title=%q", auth, title)
	}
	if captured.Model != "gpt-4o-mini" || captured.Temperature != 0.2 || captured.MaxTokens != 1500 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if captured.ResponseFormat != nil {
		t.Fatalf("expected no response_format for Complete, got %v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCompleteToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message":       map[string]any{
						"content":    "",
						"tool_calls": []any{
							map[string]any{
								"type":     "function",
								"id":       "call_1",
								"function": map[string]any{"name": "verdicts", "arguments": `[{"id":3}]`},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `[{"id":3}]` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		completionHandler(t, "[]")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(3),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "[]" || calls.Load() != 2 {
		t.Fatalf("unexpected content %q after %d calls", content, calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("unexpected backoff %v", slept)
	}
}

func TestCompleteDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestRetryAfterHonoured(t *testing.T) {
	client := NewClient(Config{APIKey: "x"}, WithRetryMaxAttempts(2))
	delay, retry := client.retryDelay(context.Background(), &httpStatusError{StatusCode: 429, RetryAfter: 3 * time.Second}, 1, 2)
	if !retry || delay != 3*time.Second {
		t.Fatalf("expected retry after 3s, got %v %v", delay, retry)
	}
	if _, retry := client.retryDelay(context.Background(), &httpStatusError{StatusCode: 400}, 1, 2); retry {
		t.Fatal("expected no retry on 400")
	}
}

func TestDecodeLLMJSONVariants(t *testing.T) {
	var obj struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("Sure! {\"ok\": true} hope that helps", &obj); err != nil || !obj.OK {
		t.Fatalf("expected prose-wrapped object to decode, err=%v", err)
	}
	var list []map[string]any
	if err := DecodeLLMJSON("```json\n[{\"id\":1},{\"id\":2}]\n```", &list); err != nil || len(list) != 2 {
		t.Fatalf("expected fenced array to decode, err=%v list=%v", err, list)
	}
	if err := DecodeLLMJSON("not json at all", &list); err == nil {
		t.Fatal("expected error for non-json payload")
	}
}

func TestSanitizeJSONPayloadPrefersEarliestBracket(t *testing.T) {
	got := sanitizeJSONPayload(`Here you go: [{"id":1},{"id":2}] done`)
	if got != `[{"id":1},{"id":2}]` {
		t.Fatalf("unexpected extraction %q", got)
	}
	got = sanitizeJSONPayload(`result {"events":[1,2]}`)
	if got != `{"events":[1,2]}` {
		t.Fatalf("unexpected extraction %q", got)
	}
}
