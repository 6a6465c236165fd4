package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pricepal"

	// DefaultTimeout is the per-request HTTP timeout.
	// Retail pages are heavy but rarely take longer than this to respond.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of products tracked concurrently.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies PricePal in HTTP requests.
	DefaultUserAgent = "PricePal/1.0 (+https://github.com/nao1215/pricepal)"

	// DefaultMaxBodySize limits the response body size to read (5MB).
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultCurrency is used when neither the product nor the defaults name one.
	DefaultCurrency = "USD"

	// DefaultProvider is the notification provider used when none is configured.
	DefaultProvider = "smtp"

	// DefaultCredentialsFile is the credentials file name searched for when
	// no explicit path is given.
	DefaultCredentialsFile = "email_credentials.json"

	// DefaultSchedule is the cron schedule used by the watch command.
	DefaultSchedule = "@every 1h"

	// DefaultHistoryLimit is the number of observations shown by the history command.
	DefaultHistoryLimit = 20

	// DefaultLogMaxSizeMB is the size at which the log file is rotated.
	DefaultLogMaxSizeMB = 1

	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 9

	// DefaultSubject is the subject of price notification emails.
	DefaultSubject = "PricePal price report"
)

// Notification providers.
const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

// Config holds all runtime options for a PricePal run.
// It is populated from CLI flags and the project file, then passed through
// the application rather than kept in global state.
type Config struct {
	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// BatchSize is the number of products tracked concurrently.
	BatchSize int

	// ConfigFilePath is the path to the project file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// Project is the loaded project file.
	Project *File

	// Products restricts a run to the named products. Empty means all.
	Products []string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// Notify sends an email summary after tracking.
	Notify bool

	// DryRun replaces the configured notification provider with the noop provider.
	DryRun bool

	// CredentialsPath is the path to the JSON credentials file.
	CredentialsPath string

	// DBDir is the directory holding the SQLite price history.
	DBDir string

	// SaveToDB indicates whether observations are persisted.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		BatchSize:   DefaultBatchSize,
		Project:     &File{},
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for PricePal.
// On Linux: ~/.local/share/pricepal
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PricePal.
// On Linux: ~/.config/pricepal
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for PricePal.
// On Linux: ~/.local/state/pricepal
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultLogFile returns the default rotating log file path.
func DefaultLogFile() string {
	return filepath.Join(XDGStateDir(), "logs", "pricepal.log")
}

// Validate checks if the configuration is valid for a track run.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Project == nil || len(c.Project.Products) == 0 {
		return ErrNoProducts
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if err := c.Project.Validate(); err != nil {
		return err
	}

	if c.Notify {
		if len(c.Project.Notify.Recipients) == 0 {
			return ErrNoRecipients
		}
	}

	return nil
}

// SelectedProducts returns the products this run should track, merged with
// the project defaults. When Products is empty every configured product is
// returned in file order.
func (c *Config) SelectedProducts() ([]Product, error) {
	if c.Project == nil {
		return nil, ErrNoProducts
	}

	if len(c.Products) == 0 {
		result := make([]Product, 0, len(c.Project.Products))
		for _, p := range c.Project.Products {
			result = append(result, c.Project.Resolve(p))
		}
		return result, nil
	}

	result := make([]Product, 0, len(c.Products))
	for _, name := range c.Products {
		p, ok := c.Project.Lookup(name)
		if !ok {
			return nil, &UnknownProductError{Name: name}
		}
		result = append(result, c.Project.Resolve(p))
	}
	return result, nil
}

// UnknownProductError reports a product name missing from the project file.
type UnknownProductError struct {
	Name string
}

func (e *UnknownProductError) Error() string {
	return ErrUnknownProduct.Error() + ": " + e.Name
}

// Unwrap allows errors.Is(err, ErrUnknownProduct).
func (e *UnknownProductError) Unwrap() error {
	return ErrUnknownProduct
}
