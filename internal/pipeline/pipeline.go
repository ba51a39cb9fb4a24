package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"eventsift/internal/config"
	"eventsift/internal/events"
	"eventsift/internal/logging"
	"eventsift/internal/metrics"
	"eventsift/internal/notifications"
	"eventsift/internal/services"
)

const notifyTimeout = 15 * time.Second

// ErrBusy reports that another process holds the cycle lock.
var ErrBusy = errors.New("another eventsift cycle is already running")

// StatsReader reports store totals at the end of a cycle.
type StatsReader interface {
	Stats(ctx context.Context) (events.Summary, error)
}

// StageReport is the outcome of one executed stage.
type StageReport struct {
	State   State
	Counts  map[string]int
	Err     error
	Elapsed time.Duration
}

// CycleReport aggregates the stage summaries of one cycle.
type CycleReport struct {
	ID          string
	Mode        Mode
	Started     time.Time
	Finished    time.Time
	Stages      []StageReport
	Stats       events.Summary
	Interrupted bool
}

// Failed returns the number of stages that reported an error.
func (r CycleReport) Failed() int {
	n := 0
	for _, stage := range r.Stages {
		if stage.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded reports whether every selected stage ran without error.
func (r CycleReport) Succeeded() bool {
	return !r.Interrupted && r.Failed() == 0
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the runner for a state.
func WithRunner(state State, runner Runner) Option {
	return func(p *Pipeline) {
		p.runners[state] = runner
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = rec
	}
}

// WithNotifier attaches a cycle notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(p *Pipeline) {
		if svc != nil {
			p.notifier = svc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline drives cycles over the configured stages.
type Pipeline struct {
	cfg      *config.Config
	stats    StatsReader
	logger   *slog.Logger
	runners  map[State]Runner
	recorder *metrics.Recorder
	notifier notifications.Service
	lock     *flock.Flock
	now      func() time.Time

	mu    sync.RWMutex
	state State
}

// New constructs a pipeline. runners supplies the stage implementations,
// usually DefaultRunners; options may override individual states.
func New(cfg *config.Config, stats StatsReader, logger *slog.Logger, runners map[State]Runner, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:      cfg,
		stats:    stats,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		runners:  make(map[State]Runner, len(runners)),
		notifier: notifications.NewService(cfg),
		lock:     flock.New(cfg.LockPath()),
		now:      time.Now,
		state:    StateIdle,
	}
	for state, runner := range runners {
		p.runners[state] = runner
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state machine position.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Pipeline) transition(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// Precheck verifies cycle preconditions for the mode without running anything.
func (p *Pipeline) Precheck(mode Mode) error {
	if !mode.NeedsClassifier() {
		return nil
	}
	if err := p.cfg.RequireClassifierCredential(); err != nil {
		return services.Wrap(services.ErrConfiguration, string(StateClassifying), "precheck", "", err)
	}
	return nil
}

// RunCycle executes the stages selected by mode. Stage errors are recorded in
// the report and never returned; the returned error is limited to
// preconditions, the cycle lock, and interruption by ctx.
func (p *Pipeline) RunCycle(ctx context.Context, mode Mode) (CycleReport, error) {
	if err := p.Precheck(mode); err != nil {
		return CycleReport{Mode: mode}, err
	}

	if err := os.MkdirAll(filepath.Dir(p.cfg.LockPath()), 0o755); err != nil {
		return CycleReport{Mode: mode}, fmt.Errorf("create lock directory: %w", err)
	}
	locked, err := p.lock.TryLock()
	if err != nil {
		return CycleReport{Mode: mode}, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !locked {
		return CycleReport{Mode: mode}, ErrBusy
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			p.logger.Warn("failed to release cycle lock",
				logging.String("lock", p.cfg.LockPath()),
				logging.Error(err),
			)
		}
	}()

	report := CycleReport{
		ID:      uuid.NewString(),
		Mode:    mode,
		Started: p.now(),
	}
	ctx = services.WithCycleID(ctx, report.ID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("cycle started",
		logging.String(logging.FieldEventType, "cycle_start"),
		logging.String("mode", string(mode)),
	)
	p.recorder.CycleStarted()

	for _, state := range mode.States() {
		if ctx.Err() != nil {
			report.Interrupted = true
			logger.Info("cycle interrupted before stage",
				logging.String(logging.FieldEventType, "cycle_interrupted"),
				logging.String(logging.FieldStage, string(state)),
			)
			break
		}
		report.Stages = append(report.Stages, p.runStage(ctx, state))
	}

	statsCtx := context.WithoutCancel(ctx)
	if p.stats != nil {
		if stats, err := p.stats.Stats(statsCtx); err != nil {
			logging.WarnWithContext(logger, "failed to read store stats", "stats_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "cycle totals unavailable"),
			)
		} else {
			report.Stats = stats
		}
	}

	p.transition(StateServing)
	report.Finished = p.now()
	if report.Succeeded() {
		p.recorder.CycleSucceeded(report.Finished)
	}
	logger.Info("cycle finished",
		logging.String(logging.FieldEventType, "cycle_complete"),
		logging.String("mode", string(mode)),
		logging.Int("stages", len(report.Stages)),
		logging.Int("stages_failed", report.Failed()),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)),
		logging.Int("total", report.Stats.Total),
		logging.Int("valid", report.Stats.Valid),
		logging.Int("rejected", report.Stats.Rejected),
		logging.Int("unverified", report.Stats.Unverified),
	)
	p.notifyCycle(statsCtx, logger, report)
	if report.Interrupted {
		return report, ctx.Err()
	}
	return report, nil
}

func (p *Pipeline) notifyCycle(ctx context.Context, logger *slog.Logger, report CycleReport) {
	summary := notifications.CycleSummary{
		CycleID:     report.ID,
		Mode:        string(report.Mode),
		Duration:    report.Finished.Sub(report.Started),
		Total:       report.Stats.Total,
		Valid:       report.Stats.Valid,
		Rejected:    report.Stats.Rejected,
		Unverified:  report.Stats.Unverified,
		Interrupted: report.Interrupted,
	}
	for _, stage := range report.Stages {
		if stage.Err != nil {
			summary.StagesFailed = append(summary.StagesFailed, string(stage.State))
		}
	}
	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := p.notifier.NotifyCycleCompleted(notifyCtx, summary); err != nil {
		logging.WarnWithContext(logger, "cycle notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "cycle summary not delivered"),
		)
	}
}

// runStage executes one stage to completion. Cancellation of ctx is not
// propagated into the stage.
func (p *Pipeline) runStage(ctx context.Context, state State) StageReport {
	p.transition(state)
	stageCtx := services.WithStage(context.WithoutCancel(ctx), string(state))
	logger := logging.WithContext(stageCtx, p.logger)

	result := StageReport{State: state}
	runner, ok := p.runners[state]
	if !ok || runner == nil {
		logger.Debug("stage has no runner", logging.String(logging.FieldEventType, "stage_skipped"))
		return result
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	start := p.now()
	counts, err := safeRun(stageCtx, runner)
	result.Elapsed = p.now().Sub(start)
	result.Counts = counts
	result.Err = err
	p.recorder.ObserveStage(string(state), result.Elapsed, err, counts)

	if err != nil {
		logging.WarnWithContext(logger, "stage failed; continuing", "stage_failed",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldImpact, "remaining stages still run"),
		)
		return result
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", result.Elapsed),
	}
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		attrs = append(attrs, logging.Int(key, counts[key]))
	}
	logger.Info("stage completed", logging.Args(attrs...)...)
	return result
}

func safeRun(ctx context.Context, runner Runner) (counts map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return runner(ctx)
}
