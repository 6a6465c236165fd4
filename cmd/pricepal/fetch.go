package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/scrape"
	"github.com/nao1215/pricepal/internal/table"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch and parse a single page",
		Long: `Fetch requests a page once and parses it when the response allows it.

200 and other 2xx responses are parsed. 4xx responses and any other
status are reported as errors without parsing.

Use --selector to try out a price selector before adding a product to
the configuration file.

Examples:
  # Show status, title and hash of a page
  pricepal fetch https://shop.example.com/products/electric-kettle

  # Test a price selector
  pricepal fetch --selector span.price https://shop.example.com/products/electric-kettle

  # Read the price from an attribute
  pricepal fetch -s 'meta[itemprop="price"]' -a content https://shop.example.com/p/1

  # Save the prettified page to pages/kettle.html
  pricepal fetch -o pages/kettle https://shop.example.com/products/electric-kettle`,
		Args: cobra.ExactArgs(1),
		RunE: runFetchCmd,
	}

	addFetchFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Save the prettified page to OUTPUT.html")
	cmd.Flags().StringP("selector", "s", "",
		"CSS selector of the price element")
	cmd.Flags().StringP("attr", "a", "",
		"Read the price from this attribute of the matched element")
	cmd.Flags().String("currency", "",
		"ISO 4217 currency code used to format the extracted price")

	return cmd
}

// addFetchFlags registers the flags shared by fetch and check.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("parser", "p", string(scrape.ParserHTML),
		"Parser for the response body (html or fragment)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Request timeout")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with the request")
}

// newFetcherFromFlags builds a Fetcher from the flags added by addFetchFlags.
func newFetcherFromFlags(ctx context.Context, cmd *cobra.Command, logger *slog.Logger) (*scrape.Fetcher, error) {
	parserName, err := cmd.Flags().GetString("parser")
	if err != nil {
		return nil, err
	}
	parser, err := scrape.ParseParser(parserName)
	if err != nil {
		return nil, err
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	proxyAddress, err := cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}
	userAgent, err := cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	client, err := newHTTPClient(ctx, timeout, proxyAddress, logger)
	if err != nil {
		return nil, err
	}

	return scrape.NewFetcher(client,
		scrape.WithUserAgent(userAgent),
		scrape.WithDefaultParser(parser),
		scrape.WithLogger(logger),
	), nil
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	selector, err := cmd.Flags().GetString("selector")
	if err != nil {
		return err
	}
	attr, err := cmd.Flags().GetString("attr")
	if err != nil {
		return err
	}
	currency, err := cmd.Flags().GetString("currency")
	if err != nil {
		return err
	}
	if currency != "" {
		if currency, err = model.ValidateCurrency(currency); err != nil {
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

	fetcher, err := newFetcherFromFlags(ctx, cmd, logger)
	if err != nil {
		return err
	}

	page, err := fetcher.RequestAndParse(ctx, args[0], scrape.WithOutputFile(output))
	if err != nil {
		return err
	}

	t := table.New("Field", "Value")
	t.AddRow("URL", page.URL)
	if page.FinalURL != page.URL {
		t.AddRow("Final URL", page.FinalURL)
	}
	t.AddRow("Status", strconv.Itoa(page.StatusCode)+" ("+page.Class.String()+")")
	t.AddRow("Content type", page.ContentType)
	t.AddRow("Title", page.Title)
	t.AddRow("Size", strconv.Itoa(len(page.Raw))+" bytes")
	t.AddRow("Hash", page.Hash)
	if output != "" {
		t.AddRow("Saved to", output+".html")
	}

	var extractErr error
	if selector != "" {
		text, err := scrape.ExtractPrice(page.Doc, selector, attr)
		if err == nil {
			t.AddRow("Price text", text)
			var price float64
			if price, err = scrape.ParsePrice(text); err == nil {
				t.AddRow("Price", model.FormatPrice(price, currency))
			}
		}
		extractErr = err
	}

	rendered, err := t.Render(table.FormatSimple)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	return extractErr
}
