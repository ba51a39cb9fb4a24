package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eventsift/internal/config"
	"eventsift/internal/linkcheck"
	"eventsift/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStoreReportsTotals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckStore(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "sqlite") || !strings.Contains(result.Detail, "(0 events)") {
		t.Fatalf("unexpected store result %+v", result)
	}
}

func TestCheckClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		resp := map[string]any{"choices": []map[string]any{{"message": map[string]any{"content": `{"ok":true}`}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := config.LLMConfig{APIKey: "good-key", BaseURL: srv.URL, Model: "test-model"}
	if result := CheckClassifier(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.APIKey = "bad-key"
	if result := CheckClassifier(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for rejected key")
	}

	cfg.APIKey = ""
	if result := CheckClassifier(context.Background(), cfg); result.Passed || result.Detail != "API key missing" {
		t.Fatalf("expected missing key, got %+v", result)
	}
}

func TestCheckSourceIsOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	checker := linkcheck.NewChecker(2*time.Second, "test-agent")

	live := CheckSource(context.Background(), checker, config.Source{URL: srv.URL + "/events", Type: "meetup"})
	if !live.Passed || live.Name != "Source meetup" {
		t.Fatalf("unexpected live result %+v", live)
	}
	dead := CheckSource(context.Background(), checker, config.Source{URL: srv.URL + "/gone", Name: "Gone"})
	if dead.Passed || !dead.Optional || !strings.Contains(dead.Detail, "404") {
		t.Fatalf("unexpected dead result %+v", dead)
	}
	if Failed([]Result{live, dead}) != 0 {
		t.Fatal("optional failures must not count")
	}
}

func TestRunAllWithoutNetwork(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClassifierKey(""))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg, Options{})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %+v", results)
	}
	if Failed(results) != 1 || results[3].Name != "Classifier credential" {
		t.Fatalf("expected only the credential check to fail, got %+v", results)
	}
}
