package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
	"github.com/nao1215/pricepal/internal/notification"
	"github.com/nao1215/pricepal/internal/table"
)

// NewNotifyCmd creates the notify command.
func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send an email to check the notification settings",
		Long: `Notify sends a single email with the configured provider.

It is meant for checking credentials and delivery before relying on
'pricepal track --notify'. With --table the CSV file is attached as a
formatted table in both the text and HTML parts.

Examples:
  # Send a plain message
  pricepal notify --to you@example.com --subject "Hello" --message "It works"

  # Send a table
  pricepal notify --to you@example.com --message "Current stock" --table stock.csv

  # Read recipients from a JSON file ({"email": ["a@example.com", "b@example.com"]})
  pricepal notify --recipients recipients.json --message "Hello"

  # Send through Amazon SES
  pricepal notify --provider ses --ses-region us-east-1 --from bot@example.com --to you@example.com`,
		Args: cobra.NoArgs,
		RunE: runNotifyCmd,
	}

	cmd.Flags().StringSlice("to", nil,
		"Recipient address (repeatable or comma separated)")
	cmd.Flags().String("recipients", "",
		"JSON file with recipient addresses")
	cmd.Flags().StringP("subject", "s", config.DefaultSubject,
		"Email subject")
	cmd.Flags().StringP("message", "m", "",
		"Email message")
	cmd.Flags().String("table", "",
		"CSV file sent as a table below the message")
	cmd.Flags().String("credentials", "",
		"Email credentials file (default: "+config.DefaultCredentialsFile+" in current, config or home directory)")
	cmd.Flags().String("provider", config.ProviderSMTP,
		"Notification provider (smtp, ses or noop)")
	cmd.Flags().String("ses-region", "",
		"AWS region for the ses provider")
	cmd.Flags().String("from", "",
		"Sender address for the ses provider (default: the credentials email)")

	return cmd
}

// runNotifyCmd executes the notify command.
func runNotifyCmd(cmd *cobra.Command, _ []string) error {
	to, err := cmd.Flags().GetStringSlice("to")
	if err != nil {
		return err
	}
	recipientsFile, err := cmd.Flags().GetString("recipients")
	if err != nil {
		return err
	}
	subject, err := cmd.Flags().GetString("subject")
	if err != nil {
		return err
	}
	message, err := cmd.Flags().GetString("message")
	if err != nil {
		return err
	}
	tablePath, err := cmd.Flags().GetString("table")
	if err != nil {
		return err
	}
	credentialsPath, err := cmd.Flags().GetString("credentials")
	if err != nil {
		return err
	}
	provider, err := cmd.Flags().GetString("provider")
	if err != nil {
		return err
	}
	var settings config.Notify
	if settings.SESRegion, err = cmd.Flags().GetString("ses-region"); err != nil {
		return err
	}
	if settings.From, err = cmd.Flags().GetString("from"); err != nil {
		return err
	}

	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, config.SplitAddresses(addr)...)
	}
	if recipientsFile != "" {
		fromFile, err := config.LoadRecipients(recipientsFile)
		if err != nil {
			return err
		}
		recipients = append(recipients, fromFile...)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: use --to or --recipients", config.ErrNoRecipients)
	}

	var t *table.Table
	if tablePath != "" {
		if t, err = readCSVTable(tablePath); err != nil {
			return err
		}
	}

	logger, done, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	notifier, err := newNotifier(ctx, provider, credentialsPath, settings, logger)
	if err != nil {
		return err
	}

	if t != nil {
		err = notification.SendTable(ctx, notifier, subject, message, recipients, t)
	} else {
		err = notification.SendUnformatted(ctx, notifier, subject, message, recipients)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %q to %d recipient(s) via %s\n", subject, len(recipients), provider)
	return nil
}

// readCSVTable loads a table from a CSV file.
func readCSVTable(path string) (*table.Table, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided table path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
