package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
	"github.com/nao1215/pricepal/internal/scrape"
	"github.com/nao1215/pricepal/internal/table"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check CASEFILE",
		Short: "Fetch a set of test pages and compare them with expected responses",
		Long: `Check runs every case of a JSON test-case file through the fetcher.

The file maps test_case_N to a URL and, optionally, response_case_N to the
expected response:

  {
    "test_case_1": "https://shop.example.com/products/electric-kettle",
    "response_case_1": "Electric Kettle",
    "test_case_2": "https://shop.example.com/discontinued",
    "response_case_2": "404"
  }

A three-digit expectation is compared with the response status code. Any
other expectation must appear in the page text. A case without an
expectation passes when the page can be parsed.

The command exits with an error when any case fails.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}

	addFetchFlags(cmd)
	cmd.Flags().StringP("output-dir", "o", "",
		"Save every parsed page to OUTPUT-DIR/case_N.html")

	return cmd
}

// caseResult is the outcome of one test case.
type caseResult struct {
	Case   config.TestCase
	Status int
	Passed bool
	Detail string
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cases, err := config.LoadTestCases(args[0])
	if err != nil {
		return err
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}

	logger, done, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	fetcher, err := newFetcherFromFlags(ctx, cmd, logger)
	if err != nil {
		return err
	}

	results := make([]caseResult, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}

		var opts []scrape.RequestOption
		if outputDir != "" {
			opts = append(opts, scrape.WithOutputFile(filepath.Join(outputDir, fmt.Sprintf("case_%d", tc.Index))))
		}

		result := runCase(ctx, fetcher, tc, opts...)
		logger.Info("checked case", "case", tc.Index, "url", tc.URL, "passed", result.Passed)
		results = append(results, result)
	}

	t := table.New("Case", "URL", "Status", "Result", "Detail")
	failed := 0
	for _, r := range results {
		status := "-"
		if r.Status != 0 {
			status = strconv.Itoa(r.Status)
		}
		outcome := "PASS"
		if !r.Passed {
			outcome = "FAIL"
			failed++
		}
		t.AddRow(strconv.Itoa(r.Case.Index), r.Case.URL, status, outcome, r.Detail)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t.String())
	fmt.Fprintf(out, "%d/%d cases passed\n", len(results)-failed, len(results))

	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	return nil
}

// runCase fetches tc.URL and compares the response with tc.Expected.
func runCase(ctx context.Context, fetcher *scrape.Fetcher, tc config.TestCase, opts ...scrape.RequestOption) caseResult {
	result := caseResult{Case: tc}

	page, err := fetcher.RequestAndParse(ctx, tc.URL, opts...)
	if page != nil {
		result.Status = page.StatusCode
	}
	var statusErr *scrape.StatusError
	if errors.As(err, &statusErr) {
		result.Status = statusErr.Code
	}

	switch {
	case isStatusExpectation(tc.Expected):
		result.Passed = strconv.Itoa(result.Status) == tc.Expected
		result.Detail = "expected status " + tc.Expected
		if err != nil && statusErr == nil {
			result.Detail = err.Error()
		}
	case err != nil:
		result.Detail = err.Error()
	case !tc.HasExpectation():
		result.Passed = true
		result.Detail = "parsed"
	case page.Contains(tc.Expected):
		result.Passed = true
		result.Detail = fmt.Sprintf("found %q", tc.Expected)
	default:
		result.Detail = fmt.Sprintf("missing %q", tc.Expected)
	}

	return result
}

// isStatusExpectation reports whether s is a three-digit status code.
func isStatusExpectation(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
