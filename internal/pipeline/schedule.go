package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventsift/internal/logging"
	"eventsift/internal/services"
)

// Schedule runs full cycles every interval until ctx is cancelled. The first
// cycle starts immediately and a tick that fires while a cycle is still
// running is skipped. On cancellation the running cycle finishes its current
// stage before Schedule returns. Only a configuration failure is returned.
func (p *Pipeline) Schedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = p.cfg.ScheduleInterval()
	}
	if err := p.Precheck(ModeRun); err != nil {
		return err
	}

	cronLog := cronLogger{logger: p.logger}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	fatal := make(chan error, 1)
	id, err := c.AddFunc("@every "+interval.String(), func() {
		if err := p.scheduledCycle(ctx); err != nil {
			select {
			case fatal <- err:
			default:
			}
		}
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "schedule", "register", interval.String(), err)
	}
	entry := c.Entry(id)

	p.logger.Info("scheduler started",
		logging.String(logging.FieldEventType, "schedule_start"),
		logging.Duration("interval", interval),
	)

	// The immediate run goes through the wrapped job so it shares the skip guard.
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		entry.WrappedJob.Run()
	}()
	c.Start()

	var result error
	select {
	case <-ctx.Done():
	case result = <-fatal:
	}
	<-c.Stop().Done()
	first.Wait()

	p.logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "schedule_stop"))
	p.transition(StateIdle)
	return result
}

func (p *Pipeline) scheduledCycle(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	_, err := p.RunCycle(ctx, ModeRun)
	switch {
	case err == nil:
	case services.IsFatal(err):
		return err
	case ctx.Err() != nil:
	case errors.Is(err, ErrBusy):
		logging.WarnWithContext(p.logger, "cycle skipped", "cycle_busy",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "another eventsift process holds the cycle lock"),
			logging.String(logging.FieldImpact, "next attempt after the interval"),
		)
	default:
		logging.WarnWithContext(p.logger, "cycle did not complete", "cycle_failed",
			logging.Error(err),
		)
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if nerr := p.notifier.NotifyError(notifyCtx, err, "scheduled cycle"); nerr != nil {
			p.logger.Debug("error notification failed", logging.Error(nerr))
		}
	}
	return nil
}

// cronLogger routes cron's own messages through slog. Routine scheduling
// chatter stays at debug; skipped ticks and recovered panics are warnings.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		logging.WarnWithContext(l.logger, "tick skipped", "schedule_skip",
			logging.String(logging.FieldErrorHint, "previous cycle still running"),
			logging.String(logging.FieldImpact, "cycle deferred to the next tick"),
		)
		return
	}
	l.logger.Debug("cron "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.WarnWithContext(l.logger, "cron "+msg, "schedule_error",
		append([]logging.Attr{logging.Error(err)}, kvAttrs(keysAndValues)...)...,
	)
}

func kvAttrs(keysAndValues []any) []logging.Attr {
	attrs := make([]logging.Attr, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, logging.Any(key, keysAndValues[i+1]))
	}
	return attrs
}
