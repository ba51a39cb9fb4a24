package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/services"
	"eventsift/internal/services/llm"
	"eventsift/internal/store"
)

// MaxBatchSize bounds the records sent in one request.
const MaxBatchSize = 20

// Completer sends one prompt to the classification service.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Store is the subset of the event store used by the classifier.
type Store interface {
	ListUnverified(ctx context.Context, limit int) ([]events.Event, error)
	Accept(ctx context.Context, id int64, acc store.Acceptance) (bool, error)
	Reject(ctx context.Context, id int64, confidence float64) (bool, error)
}

// Summary reports the outcome of a classification run.
type Summary struct {
	Batches  int
	Sent     int
	Accepted int
	Rejected int
	// Skipped counts verdict entries without a usable or known id.
	Skipped int
	// Unanswered counts batch records the reply did not mention.
	Unanswered int
	Errors     int
}

// Counts returns the summary as stage action counters.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		"sent":       s.Sent,
		"accepted":   s.Accepted,
		"rejected":   s.Rejected,
		"skipped":    s.Skipped,
		"unanswered": s.Unanswered,
		"errors":     s.Errors,
	}
}

func (s *Summary) add(other Summary) {
	s.Batches += other.Batches
	s.Sent += other.Sent
	s.Accepted += other.Accepted
	s.Rejected += other.Rejected
	s.Skipped += other.Skipped
	s.Unanswered += other.Unanswered
	s.Errors += other.Errors
}

// Classifier batches unverified records to the classification service.
type Classifier struct {
	completer  Completer
	store      Store
	batchSize  int
	maxBatches int
	threshold  float64
	region     string
	now        func() time.Time
	logger     *slog.Logger
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithClock overrides the clock used for the "today" rule.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Classifier from the classifier section of cfg.
func New(cfg *config.Config, completer Completer, st Store, logger *slog.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		completer:  completer,
		store:      st,
		batchSize:  MaxBatchSize,
		maxBatches: 1,
		threshold:  events.MinAcceptConfidence,
		region:     "London",
		now:        time.Now,
		logger:     logging.NewComponentLogger(logger, "classify"),
	}
	if cfg != nil {
		if n := cfg.Classifier.BatchSize; n > 0 && n <= MaxBatchSize {
			c.batchSize = n
		}
		if cfg.Classifier.MaxBatches > 0 {
			c.maxBatches = cfg.Classifier.MaxBatches
		}
		if cfg.Classifier.ConfidenceThreshold > c.threshold {
			c.threshold = cfg.Classifier.ConfidenceThreshold
		}
		if cfg.Classifier.Region != "" {
			c.region = cfg.Classifier.Region
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCompleter builds the chat-completions client for cfg.
func NewCompleter(cfg *config.Config) *llm.Client {
	settings := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
		Temperature:    settings.Temperature,
		MaxTokens:      settings.MaxTokens,
	}, llm.WithRetryMaxAttempts(settings.RetryAttempts))
}

// Run classifies up to the configured number of batches. Records already
// sent during this run are not sent again. The first failed batch stops the
// run and its error is returned with the summary so far.
func (c *Classifier) Run(ctx context.Context) (Summary, error) {
	var total Summary
	seen := make(map[int64]struct{})
	for n := 0; n < c.maxBatches; n++ {
		batch, err := c.nextBatch(ctx, seen)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			if n == 0 {
				c.logger.Info("no unverified events")
			}
			break
		}
		for _, event := range batch {
			seen[event.ID] = struct{}{}
		}
		summary, err := c.ClassifyBatch(ctx, batch)
		total.add(summary)
		if err != nil {
			return total, err
		}
		if len(batch) < c.batchSize {
			break
		}
	}
	return total, nil
}

func (c *Classifier) nextBatch(ctx context.Context, seen map[int64]struct{}) ([]events.Event, error) {
	list, err := c.store.ListUnverified(ctx, c.batchSize+len(seen))
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "classify", "list unverified", "", err)
	}
	batch := make([]events.Event, 0, c.batchSize)
	for _, event := range list {
		if _, ok := seen[event.ID]; ok {
			continue
		}
		batch = append(batch, event)
		if len(batch) == c.batchSize {
			break
		}
	}
	return batch, nil
}

// ClassifyBatch sends one batch and applies the verdicts. A service or
// decoding failure returns services.ErrClassification with no mutation.
func (c *Classifier) ClassifyBatch(ctx context.Context, batch []events.Event) (Summary, error) {
	if len(batch) > MaxBatchSize {
		batch = batch[:MaxBatchSize]
	}
	summary := Summary{Batches: 1, Sent: len(batch)}
	verdicts, skipped, err := c.Classify(ctx, batch)
	if err != nil {
		logging.WarnWithContext(c.logger, "classification batch deferred", "classification_failed",
			logging.Int("batch_size", len(batch)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check classifier.base_url, the API key, and the model name"),
			logging.String(logging.FieldImpact, "batch stays unverified until the next run"),
		)
		return summary, err
	}
	summary.Skipped = skipped
	c.apply(ctx, batch, verdicts, &summary)
	c.logger.Info("classification batch applied",
		logging.String(logging.FieldEventType, "classification_applied"),
		logging.Int("sent", summary.Sent),
		logging.Int("accepted", summary.Accepted),
		logging.Int("rejected", summary.Rejected),
		logging.Int("skipped", summary.Skipped),
		logging.Int("unanswered", summary.Unanswered),
	)
	return summary, nil
}

// Classify asks the service for verdicts on batch without touching the store.
func (c *Classifier) Classify(ctx context.Context, batch []events.Event) ([]events.Verdict, int, error) {
	if c.completer == nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, "classify", "request", "classification service not configured", nil)
	}
	system, user, err := BuildPrompt(batch, c.region, c.threshold, c.now())
	if err != nil {
		return nil, 0, services.Wrap(services.ErrClassification, "classify", "build prompt", "", err)
	}
	content, err := c.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrClassification, "classify", "request", "", err)
	}
	verdicts, skipped, err := DecodeVerdicts(content)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrClassification, "classify", "decode", "", err)
	}
	return verdicts, skipped, nil
}

func (c *Classifier) apply(ctx context.Context, batch []events.Event, verdicts []events.Verdict, summary *Summary) {
	byID := make(map[int64]events.Event, len(batch))
	for _, event := range batch {
		byID[event.ID] = event
	}
	answered := make(map[int64]struct{}, len(verdicts))
	for _, v := range verdicts {
		event, ok := byID[v.ID]
		if !ok {
			summary.Skipped++
			continue
		}
		if _, dup := answered[v.ID]; dup {
			summary.Skipped++
			continue
		}
		answered[v.ID] = struct{}{}
		logger := c.logger.With(logging.Int64(logging.FieldEventID, v.ID))

		if !v.Accepts(c.threshold) {
			if _, err := c.store.Reject(ctx, v.ID, v.Confidence); err != nil {
				summary.Errors++
				logging.WarnWithContext(logger, "reject not stored", "verdict_store_failed", logging.Error(err))
				continue
			}
			summary.Rejected++
			continue
		}
		title := v.CleanedTitle
		if title == "" {
			title = event.Title
		}
		if _, err := c.store.Accept(ctx, v.ID, store.Acceptance{
			Title:      title,
			Category:   v.Category,
			Date:       v.Date,
			Confidence: v.Confidence,
		}); err != nil {
			summary.Errors++
			logging.WarnWithContext(logger, "acceptance not stored", "verdict_store_failed", logging.Error(err))
			continue
		}
		summary.Accepted++
	}
	summary.Unanswered = len(batch) - len(answered)
}

// String renders the summary for operator output.
func (s Summary) String() string {
	return fmt.Sprintf("sent=%d accepted=%d rejected=%d skipped=%d", s.Sent, s.Accepted, s.Rejected, s.Skipped)
}
