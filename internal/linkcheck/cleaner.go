package linkcheck

import (
	"context"
	"fmt"
	"log/slog"

	"eventsift/internal/logging"
	"eventsift/internal/store"
)

// URLCleaner removes records whose link can never be checked.
type URLCleaner struct {
	store  Store
	logger *slog.Logger
}

// NewURLCleaner constructs a URLCleaner.
func NewURLCleaner(st Store, logger *slog.Logger) *URLCleaner {
	return &URLCleaner{store: st, logger: logging.NewComponentLogger(logger, "urlclean")}
}

// CleanSummary reports the outcome of a URL cleaning pass.
type CleanSummary struct {
	Scanned int
	Removed int
}

// Counts returns the summary as stage action counters.
func (s CleanSummary) Counts() map[string]int {
	return map[string]int{"scanned": s.Scanned, "removed": s.Removed}
}

// CleanURLs deletes records whose source_url is relative or not http(s).
func (c *URLCleaner) CleanURLs(ctx context.Context) (CleanSummary, error) {
	list, err := c.store.List(ctx, store.ListOptions{})
	if err != nil {
		return CleanSummary{}, fmt.Errorf("urlclean: list events: %w", err)
	}
	summary := CleanSummary{Scanned: len(list)}
	var ids []int64
	for _, event := range list {
		if !WellFormed(event.SourceURL) {
			ids = append(ids, event.ID)
		}
	}
	if len(ids) == 0 {
		return summary, nil
	}
	removed, err := c.store.Delete(ctx, ids...)
	summary.Removed = removed
	if err != nil {
		return summary, fmt.Errorf("urlclean: delete: %w", err)
	}
	c.logger.Info("removed records with unusable links",
		logging.String(logging.FieldEventType, "urls_cleaned"),
		logging.Int("removed", removed),
	)
	return summary, nil
}
