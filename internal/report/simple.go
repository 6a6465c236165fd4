package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/table"
)

// TimeFormat is the timestamp layout used in text and Markdown reports.
const TimeFormat = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs the summary table for terminal display.
type SimpleWriter struct {
	baseWriter

	style table.Format

	// verbose lists performed steps for every product.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithStyle sets the table layout. The default is pretty.
func WithStyle(style table.Format) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.style = style
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		style:      table.FormatPretty,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a header line, the summary table, the counts and any errors.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "PricePal report (%s)\n\n", summary.GeneratedAt.Format(TimeFormat))

	rendered, err := summary.Table().Render(w.style)
	if err != nil {
		return 0, err
	}
	sb.WriteString(rendered)
	sb.WriteString("\n\n")

	sb.WriteString(CountsLine(summary))
	sb.WriteString("\n")

	w.writeErrors(&sb, summary)
	if w.verbose {
		w.writeSteps(&sb, summary)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeErrors(sb *strings.Builder, summary *model.Summary) {
	var lines []string
	for _, r := range summary.Reports {
		if r.ErrorMessage == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", r.Product.Name, r.ErrorMessage))
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\nErrors:\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSteps(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\nSteps:\n")
	for _, r := range summary.Reports {
		steps := "-"
		if len(r.PerformedSteps) > 0 {
			steps = strings.Join(r.PerformedSteps, " -> ")
		}
		fmt.Fprintf(sb, "  %s: %s\n", r.Product.Name, steps)
	}
}

// CountsLine summarizes the counts of a run in one line, for example
// "3 tracked: 1 down, 0 up, 1 unchanged, 1 new, 0 failed, 1 at or below target".
func CountsLine(s *model.Summary) string {
	return fmt.Sprintf("%d tracked: %d down, %d up, %d unchanged, %d new, %d failed, %d at or below target",
		s.Total, s.Drops, s.Rises, s.Unchanged, s.New, s.Failed, s.BelowTarget)
}
