package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the file loaders so that
// callers can use errors.Is() for programmatic handling.
var (
	// ErrNoProducts is returned when a track run has nothing to track.
	ErrNoProducts = errors.New("no products to track: add products to the configuration file or name them as arguments")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownProvider is returned for a notification provider other than smtp, ses or noop.
	ErrUnknownProvider = errors.New("unknown notification provider: expected smtp, ses or noop")

	// ErrNoRecipients is returned when notification is requested without recipients.
	ErrNoRecipients = errors.New("no notification recipients configured")

	// ErrInvalidProduct is returned when a product entry lacks a name, URL or selector.
	ErrInvalidProduct = errors.New("invalid product: name, url and selector are required")

	// ErrDuplicateProduct is returned when two product entries share a name.
	ErrDuplicateProduct = errors.New("duplicate product name")

	// ErrUnknownProduct is returned when a product named on the command line is
	// not present in the configuration file.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrCredentialsNotFound is returned when the credentials file does not exist.
	ErrCredentialsNotFound = errors.New("credentials file not found")

	// ErrIncompleteCredentials is returned when a credentials field is missing.
	ErrIncompleteCredentials = errors.New("incomplete credentials: email, pw, server and port are required")

	// ErrInvalidPort is returned when the SMTP port is outside 1..65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrTestCasesNotFound is returned when the test-case file does not exist.
	ErrTestCasesNotFound = errors.New("test case file not found")

	// ErrOrphanResponseCase is returned when a response_case_N has no test_case_N.
	ErrOrphanResponseCase = errors.New("response case without matching test case")

	// ErrInvalidCaseKey is returned for keys that are neither test_case_N nor response_case_N.
	ErrInvalidCaseKey = errors.New("invalid test case key")
)
