package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"eventsift/internal/logging"
	"eventsift/internal/metrics"
	"eventsift/internal/pipeline"
)

func newCycleCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newCycleCommand(ctx, pipeline.ModeRun, "Run a full cycle: scrape, clean, validate, enhance, classify"),
		newCycleCommand(ctx, pipeline.ModeScrape, "Scrape configured sources into the store"),
		newCycleCommand(ctx, pipeline.ModeClean, "Deduplicate, clean URLs, filter, validate links, and enhance"),
		newCycleCommand(ctx, pipeline.ModeClassify, "Classify unverified events with the external service"),
	}
}

func newCycleCommand(ctx *commandContext, mode pipeline.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runLog, err := ctx.runLogger(cfg)
			if err != nil {
				return err
			}
			defer runLog.Close()

			p := pipeline.New(cfg, st, runLog.Logger, pipeline.DefaultRunners(cfg, st, runLog.Logger))
			report, err := p.RunCycle(cmd.Context(), mode)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			printCycleReport(cmd, report)
			if runLog.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", runLog.Path)
			}
			return err
		},
	}
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run full cycles continuously on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runLog, err := ctx.runLogger(cfg)
			if err != nil {
				return err
			}
			defer runLog.Close()
			logger := runLog.Logger

			rec := metrics.New()
			if bind := cfg.Metrics.Bind; bind != "" {
				server := metrics.NewServer(bind, rec)
				serveErr := make(chan error, 1)
				if err := server.Start(serveErr); err != nil {
					return fmt.Errorf("start metrics server on %s: %w", bind, err)
				}
				logger.Info("metrics endpoint listening",
					logging.String("bind", bind),
					logging.String(logging.FieldEventType, "metrics_listen"),
				)
				go func() {
					if err := <-serveErr; err != nil {
						logging.WarnWithContext(logger, "metrics server stopped", "metrics_failed",
							logging.Error(err),
							logging.String(logging.FieldImpact, "metrics are no longer exported"),
						)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = server.Shutdown(shutdownCtx)
				}()
			}

			if interval <= 0 {
				interval = cfg.ScheduleInterval()
			}
			p := pipeline.New(cfg, st, logger, pipeline.DefaultRunners(cfg, st, logger), pipeline.WithRecorder(rec))
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduling cycles every %s (Ctrl+C to stop)\n", interval)
			return p.Schedule(cmd.Context(), interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between cycles (default from schedule.interval_hours)")
	return cmd
}

func printCycleReport(cmd *cobra.Command, report pipeline.CycleReport) {
	out := cmd.OutOrStdout()
	if len(report.Stages) > 0 {
		rows := make([][]string, 0, len(report.Stages))
		for _, stage := range report.Stages {
			status := "ok"
			if stage.Err != nil {
				status = "failed"
			}
			rows = append(rows, []string{
				string(stage.State),
				status,
				formatCounts(stage.Counts),
				stage.Elapsed.Round(time.Millisecond).String(),
			})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Stage", "Status", "Records", "Elapsed"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
	}
	if report.Interrupted {
		fmt.Fprintln(out, "Cycle interrupted")
	}
	fmt.Fprintf(out, "Events: %d total, %d valid, %d rejected, %d unverified\n",
		report.Stats.Total, report.Stats.Valid, report.Stats.Rejected, report.Stats.Unverified)
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		if counts[key] == 0 {
			continue
		}
		parts = append(parts, key+"="+strconv.Itoa(counts[key]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
