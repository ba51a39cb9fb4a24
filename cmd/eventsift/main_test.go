package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventsift/internal/config"
	"eventsift/internal/testsupport"
)

var classifierKeyEnvs = []string{"EVENTSIFT_LLM_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"}

// clearClassifierEnv hides credentials from the developer's shell for the test.
func clearClassifierEnv(t *testing.T) {
	t.Helper()
	for _, key := range classifierKeyEnvs {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath, envFile string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	if envFile != "" {
		flags = append(flags, "--env-file", envFile)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<li class="event"><h3>Kubernetes Workshop</h3><span class="date">2030-05-01</span><a href="/k8s">more</a></li>
<li class="event"><h3>Alumni only mixer</h3><a href="/mixer">more</a></li>
</body></html>`)
	})
	mux.HandleFunc("/k8s", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/mixer", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "eventsift", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected existing file to be refused")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowMasksCredentials(t *testing.T) {
	clearClassifierEnv(t)
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithClassifierKey("super-secret"),
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic"}),
	)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, path, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "********")
	if strings.Contains(out, "super-secret") {
		t.Fatalf("credential leaked:\n%s", out)
	}
}

func TestEnvFileSuppliesCredential(t *testing.T) {
	clearClassifierEnv(t)
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithClassifierKey(""),
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic"}),
	)
	path := writeTestConfig(t, cfg)
	envFile := filepath.Join(testsupport.BaseDir(cfg), "test.env")
	if err := os.WriteFile(envFile, []byte("EVENTSIFT_LLM_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	out, stderr, err := runCLI(t, []string{"config", "show"}, path, envFile)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "********")
	if strings.Contains(stderr, "api_key is required") {
		t.Fatalf("expected credential from env file, got warning %q", stderr)
	}

	if _, _, err := runCLI(t, []string{"stats"}, path, filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected explicit missing env file to fail")
	}
}

func TestClassifyWithoutCredentialFails(t *testing.T) {
	clearClassifierEnv(t)
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithClassifierKey(""),
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic"}),
	)
	path := writeTestConfig(t, cfg)

	for _, command := range []string{"classify", "run"} {
		_, _, err := runCLI(t, []string{command}, path, "")
		if err == nil {
			t.Fatalf("%s: expected configuration failure", command)
		}
		requireContains(t, err.Error(), "configuration error")
	}
}

func TestScrapeCleanAndList(t *testing.T) {
	clearClassifierEnv(t)
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "meetupgroup", Name: "Group"}),
	)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"scrape"}, path, "")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	requireContains(t, out, "scraping")
	requireContains(t, out, "inserted=2")
	requireContains(t, out, "Events: 2 total")

	out, _, err = runCLI(t, []string{"clean"}, path, "")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	requireContains(t, out, "filtering")
	requireContains(t, out, "Events: 1 total")

	out, _, err = runCLI(t, []string{"events", "list", "--json"}, path, "")
	if err != nil {
		t.Fatalf("events list: %v", err)
	}
	var views []eventView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 event, got %+v", views)
	}
	got := views[0]
	if got.Title != "Kubernetes Workshop" || got.Date != "2030-05-01" || got.SourceURL != srv.URL+"/k8s" {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Status != "unverified" || got.Confidence != nil || got.SourceName != "Group" {
		t.Fatalf("unexpected status fields %+v", got)
	}

	out, _, err = runCLI(t, []string{"events", "list", "--valid"}, path, "")
	if err != nil {
		t.Fatalf("events list --valid: %v", err)
	}
	requireContains(t, out, "No events stored")

	out, _, err = runCLI(t, []string{"stats"}, path, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "unverified")
	requireContains(t, out, "sqlite")

	out, _, err = runCLI(t, []string{"logs", "-n", "200"}, path, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "cycle_complete")
}

func TestCheckCommand(t *testing.T) {
	clearClassifierEnv(t)
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic", Name: "Listing"}),
	)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"check", "--sources"}, path, "")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Event store")
	requireContains(t, out, "Source Listing")

	cfg = testsupport.NewConfig(t,
		testsupport.WithClassifierKey(""),
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic"}),
	)
	path = writeTestConfig(t, cfg)
	out, _, err = runCLI(t, []string{"check"}, path, "")
	if err == nil {
		t.Fatal("expected missing credential to fail check")
	}
	requireContains(t, out, "FAIL")
}

func TestTestNotifyPostsToTopic(t *testing.T) {
	clearClassifierEnv(t)
	var title string
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
	}))
	defer ntfy.Close()
	srv := listingServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithSources(config.Source{URL: srv.URL + "/listing", Type: "generic"}),
	)
	cfg.Notifications.NtfyTopic = ntfy.URL
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"test-notify"}, path, "")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if title != "eventsift - Test" {
		t.Fatalf("unexpected ntfy title %q", title)
	}
}
