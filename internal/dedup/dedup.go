package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/store"
	"eventsift/internal/textutil"
)

// Store is the subset of the event store used by the deduplicator.
type Store interface {
	List(ctx context.Context, opts store.ListOptions) ([]events.Event, error)
	Delete(ctx context.Context, ids ...int64) (int, error)
}

// Summary reports the outcome of a deduplication pass.
type Summary struct {
	Scanned int
	Groups  int
	Removed int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{"scanned": s.Scanned, "removed": s.Removed}
}

// Deduplicator deletes semantic duplicates.
type Deduplicator struct {
	store  Store
	logger *slog.Logger
}

// New constructs a Deduplicator.
func New(st Store, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{store: st, logger: logging.NewComponentLogger(logger, "dedup")}
}

// Key returns the grouping key for a record.
func Key(event events.Event) string {
	return textutil.NormalizeKey(event.Title, event.Location) + "\x1f" + event.Date
}

// Duplicates returns the ids that are not the smallest id of their group,
// in ascending order.
func Duplicates(list []events.Event) []int64 {
	keep := make(map[string]int64, len(list))
	for _, event := range list {
		key := Key(event)
		if current, ok := keep[key]; !ok || event.ID < current {
			keep[key] = event.ID
		}
	}
	var out []int64
	for _, event := range list {
		if keep[Key(event)] != event.ID {
			out = append(out, event.ID)
		}
	}
	slices.Sort(out)
	return out
}

// RemoveDuplicates deletes every duplicate record and returns the summary.
func (d *Deduplicator) RemoveDuplicates(ctx context.Context) (Summary, error) {
	list, err := d.store.List(ctx, store.ListOptions{})
	if err != nil {
		return Summary{}, fmt.Errorf("dedup: list events: %w", err)
	}
	summary := Summary{Scanned: len(list)}
	ids := Duplicates(list)
	summary.Groups = len(list) - len(ids)
	if len(ids) == 0 {
		d.logger.Info("no duplicates found", logging.Int("scanned", summary.Scanned))
		return summary, nil
	}
	for _, id := range ids {
		d.logger.Debug("removing duplicate", logging.Int64(logging.FieldEventID, id))
	}
	removed, err := d.store.Delete(ctx, ids...)
	summary.Removed = removed
	if err != nil {
		return summary, fmt.Errorf("dedup: delete duplicates: %w", err)
	}
	d.logger.Info("duplicates removed",
		logging.String(logging.FieldEventType, "duplicates_removed"),
		logging.Int("scanned", summary.Scanned),
		logging.Int("removed", summary.Removed),
	)
	return summary, nil
}
