package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/linkcheck"
	"eventsift/internal/logging"
	"eventsift/internal/services"
	"eventsift/internal/store"
)

// queryStripHosts lists URL substrings whose query strings carry only tracking state.
var queryStripHosts = []string{"eventbrite"}

// Store is the subset of the event store used by the enhancer.
type Store interface {
	List(ctx context.Context, opts store.ListOptions) ([]events.Event, error)
	UpdateURL(ctx context.Context, id int64, url string) error
	SetSourceID(ctx context.Context, id int64, sourceID string) error
	Delete(ctx context.Context, ids ...int64) (int, error)
}

// Summary reports the outcome of an enhancement pass.
type Summary struct {
	Checked    int
	Updated    int
	Backfilled int
	Removed    int
	Errors     int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"checked":    s.Checked,
		"updated":    s.Updated,
		"backfilled": s.Backfilled,
		"removed":    s.Removed,
		"errors":     s.Errors,
	}
}

// Enhancer performs the second cleaning pass.
type Enhancer struct {
	store   Store
	checker *linkcheck.Checker
	delay   time.Duration
	sleep   linkcheck.Sleeper
	suffix  func() string
	logger  *slog.Logger
}

// Option customizes an Enhancer.
type Option func(*Enhancer)

// WithChecker overrides the checker built from configuration.
func WithChecker(checker *linkcheck.Checker) Option {
	return func(e *Enhancer) {
		if checker != nil {
			e.checker = checker
		}
	}
}

// WithSleeper overrides the inter-record wait.
func WithSleeper(sleep linkcheck.Sleeper) Option {
	return func(e *Enhancer) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithSuffix overrides the random identity suffix generator.
func WithSuffix(suffix func() string) Option {
	return func(e *Enhancer) {
		if suffix != nil {
			e.suffix = suffix
		}
	}
}

// New constructs an Enhancer from the links section of cfg.
func New(cfg *config.Config, st Store, logger *slog.Logger, opts ...Option) *Enhancer {
	e := &Enhancer{
		store:  st,
		sleep:  linkcheck.Sleep,
		suffix: randomSuffix,
		logger: logging.NewComponentLogger(logger, "enhance"),
	}
	var (
		timeout   time.Duration
		userAgent string
	)
	if cfg != nil {
		timeout = cfg.EnhanceTimeout()
		e.delay = cfg.EnhanceDelay()
		userAgent = cfg.Links.UserAgent
	}
	e.checker = linkcheck.NewChecker(timeout, userAgent)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CleanURL applies source-specific URL normalization.
func CleanURL(raw string) string {
	for _, host := range queryStripHosts {
		if !strings.Contains(raw, host) {
			continue
		}
		if idx := strings.Index(raw, "?"); idx >= 0 {
			return raw[:idx]
		}
	}
	return raw
}

// EnhanceAll processes every stored record.
func (e *Enhancer) EnhanceAll(ctx context.Context) (Summary, error) {
	list, err := e.store.List(ctx, store.ListOptions{})
	if err != nil {
		return Summary{}, fmt.Errorf("enhance: list events: %w", err)
	}
	var (
		summary Summary
		dead    []int64
	)
	for idx, event := range list {
		if idx > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				break
			}
		}
		summary.Checked++
		logger := e.logger.With(logging.Int64(logging.FieldEventID, event.ID))

		cleaned := CleanURL(event.SourceURL)
		verdict := e.checker.Check(ctx, cleaned)
		if !verdict.Alive {
			logger.Info("link dead",
				logging.String(logging.FieldEventType, "link_dead"),
				logging.String("url", cleaned),
				logging.String("reason", verdict.Reason),
			)
			dead = append(dead, event.ID)
			continue
		}

		if cleaned != event.SourceURL {
			if err := e.store.UpdateURL(ctx, event.ID, cleaned); err != nil {
				summary.Errors++
				logging.WarnWithContext(logger, "url cleanup not stored", "url_cleanup_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "record keeps its original url"),
				)
			} else {
				summary.Updated++
			}
		}

		if strings.TrimSpace(event.SourceID) == "" {
			if err := e.backfill(ctx, event); err != nil {
				summary.Errors++
				logging.WarnWithContext(logger, "source_id backfill failed", "source_id_backfill_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "record may be re-ingested as a duplicate"),
				)
			} else {
				summary.Backfilled++
			}
		}
	}

	if len(dead) > 0 {
		removed, err := e.store.Delete(ctx, dead...)
		summary.Removed = removed
		if err != nil {
			return summary, services.Wrap(services.ErrPersistence, "enhance", "delete dead", "", err)
		}
	}
	e.logger.Info("enhancement complete",
		logging.String(logging.FieldEventType, "enhance_complete"),
		logging.Int("checked", summary.Checked),
		logging.Int("updated", summary.Updated),
		logging.Int("backfilled", summary.Backfilled),
		logging.Int("removed", summary.Removed),
	)
	return summary, nil
}

// backfill assigns "<source_name>_<suffix>", retrying once on collision.
func (e *Enhancer) backfill(ctx context.Context, event events.Event) error {
	prefix := strings.TrimSpace(event.SourceName)
	if prefix == "" {
		prefix = "event"
	}
	var err error
	for range 2 {
		err = e.store.SetSourceID(ctx, event.ID, prefix+"_"+e.suffix())
		if err == nil || !errors.Is(err, store.ErrDuplicate) {
			return err
		}
	}
	return err
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
