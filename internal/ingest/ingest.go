package ingest

import (
	"context"
	"log/slog"
	"strings"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/fetch"
	"eventsift/internal/logging"
	"eventsift/internal/parse"
	"eventsift/internal/services"
)

// Fetcher retrieves a source listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Store is the subset of the event store used during ingestion.
type Store interface {
	ExistsBySourceID(ctx context.Context, sourceID string) (bool, error)
	Insert(ctx context.Context, candidate events.Candidate) (*events.Event, error)
}

// Summary reports the outcome of one ingestion pass.
type Summary struct {
	Sources       int
	SourcesFailed int
	Found         int
	Inserted      int
	Existing      int
	Skipped       int
	Errors        int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"found":          s.Found,
		"inserted":       s.Inserted,
		"existing":       s.Existing,
		"parse_skipped":  s.Skipped,
		"insert_errors":  s.Errors,
		"sources_failed": s.SourcesFailed,
	}
}

func (s *Summary) add(other Summary) {
	s.Sources += other.Sources
	s.SourcesFailed += other.SourcesFailed
	s.Found += other.Found
	s.Inserted += other.Inserted
	s.Existing += other.Existing
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}

type binding struct {
	source config.Source
	parser parse.Parser
}

// Ingestor scrapes every configured source in order.
type Ingestor struct {
	fetcher  Fetcher
	store    Store
	logger   *slog.Logger
	bindings []binding
	limit    int
	location string
}

// New binds each configured source to its parser.
func New(cfg *config.Config, fetcher Fetcher, st Store, logger *slog.Logger) *Ingestor {
	ing := &Ingestor{
		fetcher:  fetcher,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "ingest"),
		limit:    parse.DefaultLimit,
		location: "London",
	}
	if cfg != nil {
		if cfg.Fetch.MaxPerSource > 0 {
			ing.limit = cfg.Fetch.MaxPerSource
		}
		if loc := strings.TrimSpace(cfg.Fetch.DefaultLocation); loc != "" {
			ing.location = loc
		}
		for _, src := range cfg.Sources {
			ing.bindings = append(ing.bindings, binding{source: src, parser: parse.For(src.Type)})
		}
	}
	return ing
}

// Sources returns the number of bound sources.
func (i *Ingestor) Sources() int {
	return len(i.bindings)
}

// IngestAll scrapes every source and returns the aggregated summary. It never
// fails because of a single source.
func (i *Ingestor) IngestAll(ctx context.Context) Summary {
	var total Summary
	for _, b := range i.bindings {
		total.add(i.ingestSource(ctx, b))
	}
	i.logger.Info("ingestion complete",
		logging.String(logging.FieldEventType, "ingest_complete"),
		logging.Int("sources", total.Sources),
		logging.Int("sources_failed", total.SourcesFailed),
		logging.Int("found", total.Found),
		logging.Int("inserted", total.Inserted),
		logging.Int("existing", total.Existing),
		logging.Int("errors", total.Errors),
	)
	return total
}

func (i *Ingestor) ingestSource(ctx context.Context, b binding) Summary {
	summary := Summary{Sources: 1}
	label := b.source.Type
	if b.source.Name != "" {
		label = b.source.Name
	}
	ctx = services.WithSource(ctx, label)
	logger := logging.WithContext(ctx, i.logger)

	page, err := i.fetcher.Fetch(ctx, b.source.URL)
	if err != nil {
		summary.SourcesFailed++
		logging.WarnWithContext(logger, "source fetch failed", "source_fetch_failed",
			logging.String("url", b.source.URL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the source URL and whether the site blocks automated clients"),
			logging.String(logging.FieldImpact, "no events from this source this cycle"),
		)
		return summary
	}

	result := parse.Parse(b.parser, page.Body, parse.Target{
		URL:      page.URL,
		Type:     b.source.Type,
		Name:     b.source.Name,
		Location: i.location,
		Limit:    i.limit,
	})
	if result.Err != nil {
		summary.SourcesFailed++
		logging.WarnWithContext(logger, "source parse failed", "source_parse_failed",
			logging.String("url", b.source.URL),
			logging.Error(result.Err),
			logging.String(logging.FieldImpact, "no events from this source this cycle"),
		)
		return summary
	}
	summary.Found = len(result.Candidates)
	summary.Skipped = result.Skipped

	for _, candidate := range result.Candidates {
		inserted, err := i.persist(ctx, candidate)
		switch {
		case err != nil:
			summary.Errors++
			logger.Debug("candidate not stored",
				logging.String("source_id", candidate.SourceID),
				logging.Error(err),
			)
		case inserted:
			summary.Inserted++
		default:
			summary.Existing++
		}
	}
	logger.Info("source scraped",
		logging.String(logging.FieldEventType, "source_scraped"),
		logging.String("parser", string(b.parser.Name())),
		logging.Int("found", summary.Found),
		logging.Int("inserted", summary.Inserted),
		logging.Int("skipped", summary.Skipped),
	)
	return summary
}

func (i *Ingestor) persist(ctx context.Context, candidate events.Candidate) (bool, error) {
	exists, err := i.store.ExistsBySourceID(ctx, candidate.SourceID)
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, "ingest", "exists", candidate.SourceID, err)
	}
	if exists {
		return false, nil
	}
	if _, err := i.store.Insert(ctx, candidate); err != nil {
		return false, err
	}
	return true, nil
}
