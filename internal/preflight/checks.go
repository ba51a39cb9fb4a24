package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"eventsift/internal/config"
	"eventsift/internal/linkcheck"
	"eventsift/internal/services/llm"
	"eventsift/internal/store"
)

// CheckClassifier verifies that the classification API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckClassifier(ctx context.Context, cfg config.LLMConfig) Result {
	const name = "Classifier"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", cfg.Model)}
}

// CheckClassifierCredential reports whether a classifier key is configured
// without contacting the service.
func CheckClassifierCredential(cfg *config.Config) Result {
	const name = "Classifier credential"
	if err := cfg.RequireClassifierCredential(); err != nil {
		return Result{Name: name, Detail: "missing (classify and run will refuse to start)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckStore opens the event store and reads its totals.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Event store"
	st, err := store.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer st.Close()

	summary, err := st.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", st.Location(), err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s %s (%d events)", st.Driver(), st.Location(), summary.Total),
	}
}

// CheckSource link-checks one configured listing page. Source failures are
// optional: the ingestor skips unreachable sources.
func CheckSource(ctx context.Context, checker *linkcheck.Checker, src config.Source) Result {
	name := "Source " + sourceLabel(src)
	verdict := checker.Check(ctx, src.URL)
	if !verdict.Alive {
		detail := verdict.Reason
		if verdict.StatusCode != 0 {
			detail = fmt.Sprintf("HTTP %d", verdict.StatusCode)
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", src.URL, detail), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: src.URL, Optional: true}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func sourceLabel(src config.Source) string {
	if name := strings.TrimSpace(src.Name); name != "" {
		return name
	}
	if t := strings.TrimSpace(src.Type); t != "" {
		return t
	}
	return "generic"
}

// summarizeLLMError produces a human-readable summary for health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (classifier API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (classifier API unreachable)"
	}
	return err.Error()
}
