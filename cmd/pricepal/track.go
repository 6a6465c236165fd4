package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
	"github.com/nao1215/pricepal/internal/database"
	"github.com/nao1215/pricepal/internal/httpclient"
	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/notification"
	"github.com/nao1215/pricepal/internal/pipeline"
	"github.com/nao1215/pricepal/internal/report"
	"github.com/nao1215/pricepal/internal/scrape"
)

// errAllFailed is returned when no product in a run could be priced.
var errAllFailed = errors.New("every tracked product failed")

// NewTrackCmd creates the track command.
func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [PRODUCT...]",
		Short: "Fetch current prices and report what changed",
		Long: `Track fetches the page of every configured product once, extracts the
price and compares it with the last recorded price.

Prices are stored in a local database ($XDG_DATA_HOME/pricepal) so the next
run can report drops, rises and reached targets.

Examples:
  # Track every product in .pricepal
  pricepal track

  # Track selected products only
  pricepal track kettle headphones

  # Output a Markdown report to a file
  pricepal track --markdown -o reports/prices.md

  # Email the report to the configured recipients
  pricepal track --notify

  # Show what would be emailed without sending it
  pricepal track --notify --dry-run`,
		Args: cobra.ArbitraryArgs,
		RunE: runTrackCmd,
	}

	addTrackFlags(cmd)

	return cmd
}

// addTrackFlags registers the flags shared by track and watch.
func addTrackFlags(cmd *cobra.Command) {
	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each product request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of products tracked concurrently")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pricepal in current, config or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Notification flags
	cmd.Flags().BoolP("notify", "n", false,
		"Email the report to the configured recipients")
	cmd.Flags().Bool("dry-run", false,
		"Log the notification instead of sending it")
	cmd.Flags().String("credentials", "",
		"Email credentials file (default: notify.credentials or "+config.DefaultCredentialsFile+")")

	// Storage flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the price history database")
	cmd.Flags().Bool("no-save", false,
		"Do not read or record price history")
}

// runTrackCmd executes the track command.
func runTrackCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, out, done, err := setupReportLogger(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	return runTrack(ctx, out, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, an empty project fails validation with a hint.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Project, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if ua := cfg.Project.Defaults.UserAgent; ua != "" && !cmd.Flags().Changed("user-agent") {
		cfg.UserAgent = ua
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Notify, err = cmd.Flags().GetBool("notify")
	if err != nil {
		return nil, err
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	cfg.CredentialsPath, err = cmd.Flags().GetString("credentials")
	if err != nil {
		return nil, err
	}
	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = cfg.Project.Notify.Credentials
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.Products = args

	return cfg, nil
}

// runTrack tracks the selected products once, writes the report and sends
// the notification when requested.
func runTrack(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	summary, trackErr := trackProducts(ctx, cfg, logger)
	if summary == nil {
		return trackErr
	}

	if err := outputReport(out, cfg, summary); err != nil {
		return err
	}

	if cfg.Notify {
		if err := notifySummary(ctx, cfg, summary, logger); err != nil {
			return fmt.Errorf("failed to send notification: %w", err)
		}
	}

	if trackErr != nil {
		return trackErr
	}
	if summary.Total > 0 && summary.Failed == summary.Total {
		return fmt.Errorf("%w (%d products)", errAllFailed, summary.Total)
	}
	return nil
}

// trackProducts runs the tracking pipeline for every selected product.
// The summary is returned with the error when the run was interrupted.
func trackProducts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Summary, error) {
	selected, err := cfg.SelectedProducts()
	if err != nil {
		return nil, err
	}

	products, err := toModelProducts(selected)
	if err != nil {
		return nil, err
	}

	client, err := newHTTPClient(ctx, cfg.Timeout, cfg.ProxyAddress, logger)
	if err != nil {
		return nil, err
	}

	fetcher := scrape.NewFetcher(client,
		scrape.WithUserAgent(cfg.UserAgent),
		scrape.WithMaxBodySize(cfg.MaxBodySize),
		scrape.WithLogger(logger),
	)

	// store stays an untyped nil when history is disabled.
	var store pipeline.HistoryStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
		store = db
	}

	logger.Info("tracking products",
		"products", len(products),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p := pipeline.New(
				pipeline.WithLogger(logger),
				pipeline.WithContinueOnError(true),
			)
			p.AddSteps(pipeline.DefaultSteps(fetcher, store, logger)...)
			return p
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, products)
	summary := model.NewSummary(reports)
	if err != nil {
		return summary, fmt.Errorf("tracking interrupted: %w", err)
	}

	logger.Info("tracking complete", "summary", report.CountsLine(summary))
	return summary, nil
}

// toModelProducts converts configured products, validating currencies and
// moving the cookie into the request headers.
func toModelProducts(products []config.Product) ([]model.Product, error) {
	result := make([]model.Product, 0, len(products))
	for _, p := range products {
		code, err := model.ValidateCurrency(p.Currency)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Name, err)
		}

		headers := make(map[string]string, len(p.Headers)+1)
		for k, v := range p.Headers {
			headers[k] = v
		}
		if p.Cookie != "" {
			headers["Cookie"] = p.Cookie
		}

		result = append(result, model.Product{
			Name:        p.Name,
			URL:         p.URL,
			Selector:    p.Selector,
			Attribute:   p.Attribute,
			Currency:    code,
			TargetPrice: p.TargetPrice,
			Headers:     headers,
		})
	}
	return result, nil
}

// newHTTPClient builds the page client, verifying the proxy first when one
// is configured.
func newHTTPClient(ctx context.Context, timeout time.Duration, proxyAddress string, logger *slog.Logger) (*http.Client, error) {
	if proxyAddress != "" {
		if err := httpclient.CheckProxy(ctx, proxyAddress).Err(); err != nil {
			return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)", err, proxyAddress)
		}
		logger.Info("proxy connection verified", "address", proxyAddress)
	}

	client, err := httpclient.New(
		httpclient.WithTimeout(timeout),
		httpclient.WithProxy(proxyAddress),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// reportFormat returns the report format selected by the flags.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// outputReport writes the summary to cfg.ReportFile, or to out when no file
// is configured.
func outputReport(out io.Writer, cfg *config.Config, summary *model.Summary) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.NewWriter(reportFormat(cfg), out)
	if err != nil {
		return err
	}
	_, err = w.Write(summary)
	return err
}

// notifySummary emails the summary to the configured recipients.
func notifySummary(ctx context.Context, cfg *config.Config, summary *model.Summary, logger *slog.Logger) error {
	settings := cfg.Project.Notify

	if settings.OnlyOnChange && !summary.Noteworthy() {
		logger.Info("no price changes, skipping notification")
		return nil
	}

	provider := settings.ProviderName()
	if cfg.DryRun {
		provider = config.ProviderNoop
	}

	notifier, err := newNotifier(ctx, provider, cfg.CredentialsPath, settings, logger)
	if err != nil {
		return err
	}

	body := report.EmailBody(summary, settings.Subject)
	return notification.SendTable(ctx, notifier, body.Subject, body.Message, settings.Recipients, body.Table)
}

// newNotifier creates the notifier for provider. SMTP needs the credentials
// file. SES uses it only for the sender address when present.
func newNotifier(ctx context.Context, provider, credentialsPath string, settings config.Notify, logger *slog.Logger) (notification.Notifier, error) {
	var creds config.Credentials

	if provider != config.ProviderNoop {
		path := config.FindFile(credentialsPath, config.DefaultCredentialsFile)
		switch {
		case path != "":
			loaded, err := config.LoadCredentials(path)
			if err != nil {
				return nil, err
			}
			creds = loaded
		case provider == config.ProviderSES:
		default:
			name := credentialsPath
			if name == "" {
				name = config.DefaultCredentialsFile
			}
			return nil, fmt.Errorf("%w: %s", config.ErrCredentialsNotFound, name)
		}
	}

	return notification.New(ctx, provider, creds,
		notification.WithLogger(logger),
		notification.WithSESRegion(settings.SESRegion),
		notification.WithFrom(settings.From),
	)
}
