package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
)

// NewRootCmd creates the root command for PricePal.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricepal",
		Short: "Track product prices and get notified when they drop",
		Long: `PricePal tracks product prices on the web.

It fetches each product page once, extracts the price with a CSS selector,
records it in a local price history and reports what changed since the
last run. Reports can be emailed through SMTP or Amazon SES.

Products are configured in a .pricepal file. Run 'pricepal init' to
create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", config.DefaultLogFile(),
		"Rotating log file path (empty disables file logging)")

	cmd.AddCommand(NewTrackCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewNotifyCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewLogTestCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
