package filter

import (
	"context"
	"fmt"
	"log/slog"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/store"
	"eventsift/internal/textutil"
)

// Store is the subset of the event store used by the filter.
type Store interface {
	List(ctx context.Context, opts store.ListOptions) ([]events.Event, error)
	Delete(ctx context.Context, ids ...int64) (int, error)
}

// Summary reports the outcome of a filter pass.
type Summary struct {
	Scanned int
	Removed int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{"scanned": s.Scanned, "removed": s.Removed}
}

// Filter removes access-restricted records.
type Filter struct {
	store   Store
	phrases []string
	logger  *slog.Logger
}

// New constructs a Filter using the configured restriction phrases.
func New(cfg *config.Config, st Store, logger *slog.Logger) *Filter {
	var phrases []string
	if cfg != nil {
		phrases = cfg.Filter.RestrictedPhrases
	}
	if len(phrases) == 0 {
		phrases = config.DefaultRestrictedPhrases()
	}
	folded := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		if p := textutil.Fold(phrase); p != "" {
			folded = append(folded, p)
		}
	}
	return &Filter{store: st, phrases: folded, logger: logging.NewComponentLogger(logger, "filter")}
}

// Restricted reports the first phrase that marks the record as restricted.
func (f *Filter) Restricted(event events.Event) (string, bool) {
	return textutil.ContainsAny(event.Title+" "+event.Location, f.phrases)
}

// FilterRestricted deletes every restricted record.
func (f *Filter) FilterRestricted(ctx context.Context) (Summary, error) {
	list, err := f.store.List(ctx, store.ListOptions{})
	if err != nil {
		return Summary{}, fmt.Errorf("filter: list events: %w", err)
	}
	summary := Summary{Scanned: len(list)}
	var ids []int64
	for _, event := range list {
		if phrase, ok := f.Restricted(event); ok {
			f.logger.Debug("restricted event",
				logging.Int64(logging.FieldEventID, event.ID),
				logging.String("phrase", phrase),
			)
			ids = append(ids, event.ID)
		}
	}
	if len(ids) == 0 {
		return summary, nil
	}
	removed, err := f.store.Delete(ctx, ids...)
	summary.Removed = removed
	if err != nil {
		return summary, fmt.Errorf("filter: delete restricted: %w", err)
	}
	f.logger.Info("restricted events removed",
		logging.String(logging.FieldEventType, "restricted_removed"),
		logging.Int("removed", removed),
	)
	return summary, nil
}
