package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 8 * time.Second

// Verdict is the outcome of a liveness check.
type Verdict struct {
	Alive bool
	// FinalURL is the URL after redirects; empty when the link is dead.
	FinalURL   string
	StatusCode int
	// Reason describes why a link was judged dead.
	Reason string
	// Retried reports whether the GET fallback ran.
	Retried bool
}

// Checker performs liveness checks.
type Checker struct {
	client    *http.Client
	userAgent string
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// NewChecker constructs a Checker with the given per-request timeout.
func NewChecker(timeout time.Duration, userAgent string, opts ...CheckerOption) *Checker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Checker{
		client:    &http.Client{Timeout: timeout},
		userAgent: strings.TrimSpace(userAgent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WellFormed reports whether raw is an absolute http(s) URL with a host.
func WellFormed(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Check reports whether raw resolves to a live page.
func (c *Checker) Check(ctx context.Context, raw string) Verdict {
	if !WellFormed(raw) {
		return Verdict{Reason: "malformed url"}
	}
	status, final, err := c.request(ctx, http.MethodHead, raw)
	switch {
	case err != nil && !isTimeout(err):
		return Verdict{Reason: err.Error()}
	case err == nil && status == http.StatusNotFound:
		return Verdict{StatusCode: status, Reason: "not found"}
	case err == nil && status < http.StatusBadRequest:
		return Verdict{Alive: true, FinalURL: final, StatusCode: status}
	}

	// HEAD timed out or returned an error status other than 404.
	status, final, err = c.request(ctx, http.MethodGet, raw)
	if err != nil {
		return Verdict{Retried: true, Reason: err.Error()}
	}
	if status >= http.StatusBadRequest {
		return Verdict{Retried: true, StatusCode: status, Reason: fmt.Sprintf("status %d", status)}
	}
	return Verdict{Alive: true, Retried: true, FinalURL: final, StatusCode: status}
}

func (c *Checker) request(ctx context.Context, method, raw string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, raw, nil)
	if err != nil {
		return 0, "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	final := raw
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return resp.StatusCode, final, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
