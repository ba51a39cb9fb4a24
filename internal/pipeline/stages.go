package pipeline

import (
	"context"
	"log/slog"

	"eventsift/internal/classify"
	"eventsift/internal/config"
	"eventsift/internal/dedup"
	"eventsift/internal/enhance"
	"eventsift/internal/fetch"
	"eventsift/internal/filter"
	"eventsift/internal/ingest"
	"eventsift/internal/linkcheck"
	"eventsift/internal/store"
)

// Runner executes one stage and reports its per-action counts.
type Runner func(ctx context.Context) (map[string]int, error)

type counter interface {
	Counts() map[string]int
}

func counted[S counter](fn func(context.Context) (S, error)) Runner {
	return func(ctx context.Context) (map[string]int, error) {
		summary, err := fn(ctx)
		return summary.Counts(), err
	}
}

// DefaultRunners wires every stage to its component over the shared store.
func DefaultRunners(cfg *config.Config, st *store.Store, logger *slog.Logger) map[State]Runner {
	ingestor := ingest.New(cfg, fetch.New(cfg), st, logger)
	deduplicator := dedup.New(st, logger)
	cleaner := linkcheck.NewURLCleaner(st, logger)
	heuristics := filter.New(cfg, st, logger)
	validator := linkcheck.NewValidator(cfg, st, logger)
	enhancer := enhance.New(cfg, st, logger)
	classifier := classify.New(cfg, classify.NewCompleter(cfg), st, logger)

	return map[State]Runner{
		StateScraping: func(ctx context.Context) (map[string]int, error) {
			return ingestor.IngestAll(ctx).Counts(), nil
		},
		StateDeduplicating:  counted(deduplicator.RemoveDuplicates),
		StateURLCleaning:    counted(cleaner.CleanURLs),
		StateFiltering:      counted(heuristics.FilterRestricted),
		StateLinkValidating: counted(validator.ValidateAll),
		StateEnhancing:      counted(enhancer.EnhanceAll),
		StateClassifying:    counted(classifier.Run),
	}
}
