package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"eventsift/internal/config"
	"eventsift/internal/services"
)

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxBodyBytes = 5 << 20
	acceptHeader        = "text/html,application/xhtml+xml"
)

// Page is a successfully fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Body       []byte
	Truncated  bool
}

// Fetcher issues rate-limited GET requests with rotating client identities.
type Fetcher struct {
	client   *http.Client
	agents   []string
	minDelay time.Duration
	maxBody  int64
	pick     func(n int) int
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithPicker overrides the user agent selection (useful for tests).
func WithPicker(pick func(n int) int) Option {
	return func(f *Fetcher) {
		if pick != nil {
			f.pick = pick
		}
	}
}

// WithSleeper overrides how the pre-request delay is waited out.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// New constructs a Fetcher from the fetch section of cfg.
func New(cfg *config.Config, opts ...Option) *Fetcher {
	timeout := defaultTimeout
	var (
		agents   []string
		minDelay time.Duration
		maxBody  int64 = defaultMaxBodyBytes
	)
	if cfg != nil {
		if d := cfg.FetchTimeout(); d > 0 {
			timeout = d
		}
		minDelay = cfg.FetchDelay()
		if cfg.Fetch.MaxBodyBytes > 0 {
			maxBody = cfg.Fetch.MaxBodyBytes
		}
		agents = append(agents, cfg.Fetch.UserAgents...)
	}
	if len(agents) == 0 {
		agents = config.DefaultUserAgents()
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		agents:   agents,
		minDelay: minDelay,
		maxBody:  maxBody,
		pick:     rand.IntN,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UserAgent returns a pseudo-randomly selected client identity.
func (f *Fetcher) UserAgent() string {
	return f.agents[f.pick(len(f.agents))]
}

// Fetch waits the minimum delay then retrieves url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := f.sleep(ctx, f.minDelay); err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "wait", url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "build request", url, err)
	}
	req.Header.Set("User-Agent", f.UserAgent())
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "get", url, describeTransportError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, services.Wrap(services.ErrFetch, "fetch", "get", url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body", url, err)
	}
	page := &Page{URL: url, StatusCode: resp.StatusCode, Body: body}
	if int64(len(body)) > f.maxBody {
		page.Body = body[:f.maxBody]
		page.Truncated = true
	}
	if resp.Request != nil && resp.Request.URL != nil {
		page.URL = resp.Request.URL.String()
	}
	return page, nil
}

func describeTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("timeout: %w", err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
