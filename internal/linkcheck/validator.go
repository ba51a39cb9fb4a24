package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/services"
	"eventsift/internal/store"
)

// Store is the subset of the event store used by link validation.
type Store interface {
	List(ctx context.Context, opts store.ListOptions) ([]events.Event, error)
	UpdateURL(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, ids ...int64) (int, error)
}

// Summary reports the outcome of a validation pass.
type Summary struct {
	Checked   int
	Validated int
	Removed   int
	Rewritten int
	Errors    int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"checked":   s.Checked,
		"validated": s.Validated,
		"removed":   s.Removed,
		"rewritten": s.Rewritten,
		"errors":    s.Errors,
	}
}

// Sleeper waits between link checks.
type Sleeper func(ctx context.Context, d time.Duration) error

// Validator checks every stored link in sequence.
type Validator struct {
	store   Store
	checker *Checker
	delay   time.Duration
	sleep   Sleeper
	logger  *slog.Logger
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithSleeper overrides the inter-request wait.
func WithSleeper(sleep Sleeper) ValidatorOption {
	return func(v *Validator) {
		if sleep != nil {
			v.sleep = sleep
		}
	}
}

// WithChecker overrides the checker built from configuration.
func WithChecker(checker *Checker) ValidatorOption {
	return func(v *Validator) {
		if checker != nil {
			v.checker = checker
		}
	}
}

// NewValidator constructs a Validator from the links section of cfg.
func NewValidator(cfg *config.Config, st Store, logger *slog.Logger, opts ...ValidatorOption) *Validator {
	v := &Validator{
		store:  st,
		sleep:  Sleep,
		logger: logging.NewComponentLogger(logger, "linkcheck"),
	}
	var userAgent string
	var timeout time.Duration
	if cfg != nil {
		timeout = cfg.LinkTimeout()
		v.delay = cfg.LinkDelay()
		userAgent = cfg.Links.UserAgent
	}
	v.checker = NewChecker(timeout, userAgent)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateAll deletes records whose link is absent, malformed, or dead and
// rewrites links that resolved to a different final URL.
func (v *Validator) ValidateAll(ctx context.Context) (Summary, error) {
	list, err := v.store.List(ctx, store.ListOptions{})
	if err != nil {
		return Summary{}, fmt.Errorf("linkcheck: list events: %w", err)
	}
	var (
		summary Summary
		dead    []int64
		checked bool
	)
	for _, event := range list {
		summary.Checked++
		logger := v.logger.With(logging.Int64(logging.FieldEventID, event.ID))
		if !WellFormed(event.SourceURL) {
			logger.Info("removing record without usable link",
				logging.String(logging.FieldEventType, "link_missing"),
				logging.String("url", event.SourceURL),
			)
			dead = append(dead, event.ID)
			continue
		}

		if checked {
			if err := v.sleep(ctx, v.delay); err != nil {
				break
			}
		}
		checked = true
		verdict := v.checker.Check(ctx, event.SourceURL)
		switch {
		case !verdict.Alive:
			logger.Info("link dead",
				logging.String(logging.FieldEventType, "link_dead"),
				logging.String("url", event.SourceURL),
				logging.String("reason", verdict.Reason),
				logging.Bool("retried", verdict.Retried),
			)
			dead = append(dead, event.ID)
		case verdict.FinalURL != "" && verdict.FinalURL != event.SourceURL:
			summary.Validated++
			if err := v.store.UpdateURL(ctx, event.ID, verdict.FinalURL); err != nil {
				summary.Errors++
				logging.WarnWithContext(logger, "redirect rewrite failed", "link_rewrite_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "record keeps its pre-redirect url"),
				)
				break
			}
			summary.Rewritten++
			logger.Debug("link redirected",
				logging.String("from", event.SourceURL),
				logging.String("to", verdict.FinalURL),
			)
		default:
			summary.Validated++
		}
	}

	if len(dead) > 0 {
		removed, err := v.store.Delete(ctx, dead...)
		summary.Removed = removed
		if err != nil {
			return summary, services.Wrap(services.ErrPersistence, "linkcheck", "delete dead", "", err)
		}
	}
	v.logger.Info("link validation complete",
		logging.String(logging.FieldEventType, "links_validated"),
		logging.Int("checked", summary.Checked),
		logging.Int("validated", summary.Validated),
		logging.Int("removed", summary.Removed),
		logging.Int("rewritten", summary.Rewritten),
	)
	return summary, nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
