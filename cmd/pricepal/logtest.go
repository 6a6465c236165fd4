package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/log"
)

// NewLogTestCmd creates the logtest command.
func NewLogTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logtest",
		Short: "Write one log record per level",
		Long: `Logtest writes a DEBUG, INFO, WARN and ERROR record so the status line
and the rotating log file can be checked. DEBUG appears on the status
line only with --verbose. The log file always receives every level.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, done, err := setupLogger(cmd)
			if err != nil {
				return err
			}
			defer done()

			log.EmitLevelSamples(logger)

			if path := getLogFileFlag(cmd); path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Log records written to %s\n", path)
			}
			return nil
		},
	}
}
