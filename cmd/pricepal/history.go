package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricepal/internal/config"
	"github.com/nao1215/pricepal/internal/database"
	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/report"
	"github.com/nao1215/pricepal/internal/table"
)

// historyTimeFormat is the date layout of history tables.
const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [PRODUCT]",
		Short: "Show recorded prices",
		Long: `History displays the prices recorded by 'pricepal track'.

Without a product name it lists every tracked product with its lowest and
highest recorded price.

Examples:
  # List tracked products
  pricepal history

  # Show the last 20 prices of a product
  pricepal history kettle

  # Show all recorded prices as JSON
  pricepal history kettle --limit 0 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit,
		"Maximum number of prices to show (0 shows all)")
	cmd.Flags().BoolP("list-products", "L", false,
		"List all tracked products")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the price history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listProducts, err := cmd.Flags().GetBool("list-products")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return fmt.Errorf("no price history found (run 'pricepal track' first): %w", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listProducts || len(args) == 0 {
		return listTrackedProducts(ctx, out, db, jsonOutput)
	}
	return showPriceHistory(ctx, out, db, args[0], limit, jsonOutput)
}

// listTrackedProducts prints every product with stored prices.
func listTrackedProducts(ctx context.Context, out io.Writer, db *database.PriceDB, jsonOutput bool) error {
	stats, err := db.ListProducts(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(stats)
		return err
	}

	if len(stats) == 0 {
		fmt.Fprintln(out, "No products tracked yet")
		return nil
	}

	t := table.New("Product", "Prices", "Lowest", "Highest", "Last seen")
	for _, s := range stats {
		t.AddRow(
			s.Name,
			strconv.Itoa(s.Observations),
			model.FormatPrice(s.Lowest, s.Currency),
			model.FormatPrice(s.Highest, s.Currency),
			s.LastSeen.Local().Format(historyTimeFormat),
		)
	}

	fmt.Fprintf(out, "Tracked products (%d):\n\n", len(stats))
	fmt.Fprintln(out, t.String())
	return nil
}

// showPriceHistory prints the latest limit prices of product, newest first.
func showPriceHistory(ctx context.Context, out io.Writer, db *database.PriceDB, product string, limit int, jsonOutput bool) error {
	history, err := db.History(ctx, product, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(history)
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No price history found for %s\n", product)
		return nil
	}

	t := table.New("Date", "Price", "Change", "Status", "Title")
	for i, obs := range history {
		change := "-"
		if i+1 < len(history) {
			older := history[i+1]
			switch model.Compare(older, obs.Price) {
			case model.ChangeUnchanged:
				change = model.ChangeUnchanged.String()
			default:
				change = model.FormatDelta(obs.Price-older.Price, obs.Currency)
			}
		}
		status := "-"
		if obs.StatusCode != 0 {
			status = strconv.Itoa(obs.StatusCode)
		}
		t.AddRow(obs.ObservedAt.Local().Format(historyTimeFormat), obs.Formatted(), change, status, obs.Title)
	}

	fmt.Fprintf(out, "Price history for %s (%d prices):\n\n", product, len(history))
	fmt.Fprintln(out, t.String())
	return nil
}
