package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/log"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFileFlag returns the --log-file value. A command used without the
// root command logs to no file.
func getLogFileFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("log-file")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger builds the application logger, installs it as the default
// and returns a function that finishes the status line and closes the log
// file.
func setupLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	logger, _, done, err := setupReportLogger(cmd)
	return logger, done, err
}

// setupReportLogger is setupLogger for commands that print reports. The
// returned writer is the command's stdout, and every write to it first ends
// the status line.
func setupReportLogger(cmd *cobra.Command) (*slog.Logger, io.Writer, func(), error) {
	status := log.NewTerminalStatus(cmd.ErrOrStderr())

	logger, closer, err := log.Setup(log.Options{
		Verbose: getVerboseFlag(cmd),
		File:    getLogFileFlag(cmd),
		Status:  status,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)

	return logger, status.Writer(cmd.OutOrStdout()), func() {
		status.Done()
		_ = closer.Close() //nolint:errcheck // nothing left to report to
	}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
