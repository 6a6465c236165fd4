package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [PRODUCT...]",
		Short: "Track prices on a schedule until interrupted",
		Long: `Watch runs 'pricepal track' on a schedule until it receives SIGINT or SIGTERM.

The schedule accepts standard cron expressions ("0 */6 * * *") and
descriptors such as "@hourly" or "@every 30m". A run that is still in
progress when the next one is due is skipped.

Examples:
  # Track every hour and email drops
  pricepal watch --notify

  # Track twice a day, starting with the first scheduled time
  pricepal watch --schedule "0 8,20 * * *" --run-now=false`,
		Args: cobra.ArbitraryArgs,
		RunE: runWatchCmd,
	}

	addTrackFlags(cmd)
	cmd.Flags().StringP("schedule", "s", config.DefaultSchedule,
		"Cron expression or descriptor for the tracking schedule")
	cmd.Flags().Bool("run-now", true,
		"Track once immediately before waiting for the schedule")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	schedule, err := cmd.Flags().GetString("schedule")
	if err != nil {
		return err
	}

	runNow, err := cmd.Flags().GetBool("run-now")
	if err != nil {
		return err
	}

	logger, out, done, err := setupReportLogger(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	return runWatch(ctx, out, cfg, schedule, runNow, logger)
}

// runWatch tracks on schedule until ctx is cancelled. Failed runs are logged
// and do not stop the watch.
func runWatch(ctx context.Context, out io.Writer, cfg *config.Config, schedule string, runNow bool, logger *slog.Logger) error {
	cronLog := cronLogger{logger: logger}
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	job := func() {
		if err := runTrack(ctx, out, cfg, logger); err != nil {
			logger.Error("scheduled tracking failed", "error", err)
		}
	}

	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if runNow {
		job()
	}

	c.Start()
	logger.Info("watching prices", "schedule", schedule)

	<-ctx.Done()

	// Wait for a running job to finish.
	<-c.Stop().Done()
	logger.Info("watch stopped")
	return nil
}

// cronLogger routes the scheduler's messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
