package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pricepal/internal/model"
)

// MarkdownWriter outputs summaries in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PricePal Report")
	md.PlainText("")
	md.PlainTextf("Generated %s.", summary.GeneratedAt.Format(TimeFormat))
	md.PlainText("")

	w.writeAlert(md, summary)
	w.writePrices(md, summary)
	w.writeCounts(md, summary)
	w.writeErrors(md, summary)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [PricePal](https://github.com/nao1215/pricepal)*")

	return len(md.String()), md.Build()
}

// writeAlert picks the alert by the most important outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.Summary) {
	switch {
	case s.BelowTarget > 0:
		md.Importantf("%d product(s) at or below the target price.", s.BelowTarget)
	case s.Failed > 0:
		md.Warningf("%d product(s) could not be tracked.", s.Failed)
	case s.Drops > 0:
		md.Tip(strconv.Itoa(s.Drops) + " price drop(s) since the last run.")
	default:
		md.Note("No price changes since the last run.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePrices(md *markdown.Markdown, s *model.Summary) {
	md.H2("Prices")
	md.PlainText("")

	if len(s.Reports) == 0 {
		md.PlainText("No products tracked.")
		md.PlainText("")
		return
	}

	t := s.Table()
	md.Table(markdown.TableSet{
		Header: t.Columns,
		Rows:   t.Rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, s *model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Down", strconv.Itoa(s.Drops)},
			{"Up", strconv.Itoa(s.Rises)},
			{"Unchanged", strconv.Itoa(s.Unchanged)},
			{"New", strconv.Itoa(s.New)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Price Changes"),
		piechart.WithShowData(true),
	)

	slices := []struct {
		label string
		count int
	}{
		{"Down", s.Drops},
		{"Up", s.Rises},
		{"Unchanged", s.Unchanged},
		{"New", s.New},
		{"Failed", s.Failed},
	}
	for _, sl := range slices {
		if sl.count > 0 {
			chart.LabelAndIntValue(sl.label, uint64(sl.count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, s *model.Summary) {
	var items []string
	for _, r := range s.Reports {
		if r.ErrorMessage != "" {
			items = append(items, "**"+r.Product.Name+"**: "+r.ErrorMessage)
		}
	}
	if len(items) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}
