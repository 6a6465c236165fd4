// Package table holds small string tables and renders them in the text and
// HTML layouts used by reports and notification emails.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format names a rendering layout.
type Format string

// Supported formats.
const (
	FormatPretty   Format = "pretty"
	FormatSimple   Format = "simple"
	FormatGrid     Format = "grid"
	FormatRounded  Format = "rounded"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
)

// Formats lists every supported format in display order.
var Formats = []Format{
	FormatPretty, FormatSimple, FormatGrid, FormatRounded,
	FormatHTML, FormatMarkdown, FormatCSV, FormatTSV,
}

var (
	// ErrUnknownFormat is returned for a format not in Formats.
	ErrUnknownFormat = errors.New("unknown table format")

	// ErrNoColumns is returned by ReadCSV when the input has no header record.
	ErrNoColumns = errors.New("table has no columns")
)

// HTMLClass is the CSS class set on rendered HTML tables.
const HTMLClass = "pricepal-table"

// Table is a header row plus data rows of strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row. Missing cells are filled with "" and extra values
// beyond the column count are dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ParseFormat converts a name to a Format. The empty string means pretty.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatPretty, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Render returns the table in the requested format. There is no index
// column and the first column is left-aligned.
func (t *Table) Render(format Format) (string, error) {
	if format == "" {
		format = FormatPretty
	}

	tw := prettytable.NewWriter()

	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(prettytable.Row, len(t.Columns))
		for i := range t.Columns {
			if i < len(r) {
				row[i] = r[i]
			}
		}
		tw.AppendRow(row)
	}

	configs := []prettytable.ColumnConfig{{Number: 1, Align: text.AlignLeft}}

	switch format {
	case FormatPretty:
		tw.SetStyle(prettytable.StyleDefault)
	case FormatSimple:
		tw.SetStyle(simpleStyle())
	case FormatGrid:
		tw.SetStyle(prettytable.StyleDefault)
		tw.Style().Options.SeparateRows = true
	case FormatRounded:
		tw.SetStyle(prettytable.StyleRounded)
	case FormatHTML:
		tw.Style().HTML = prettytable.HTMLOptions{
			CSSClass:    HTMLClass,
			EmptyColumn: "&nbsp;",
			EscapeText:  true,
			Newline:     "<br/>",
		}
		configs = configs[:0]
		for i := range t.Columns {
			cfg := prettytable.ColumnConfig{Number: i + 1, AlignHeader: text.AlignCenter}
			if i == 0 {
				cfg.Align = text.AlignLeft
			}
			configs = append(configs, cfg)
		}
	case FormatMarkdown, FormatCSV, FormatTSV:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}

	tw.Style().Format.Header = text.FormatDefault
	tw.SetColumnConfigs(configs)

	switch format {
	case FormatHTML:
		return tw.RenderHTML(), nil
	case FormatMarkdown:
		return tw.RenderMarkdown(), nil
	case FormatCSV:
		return tw.RenderCSV(), nil
	case FormatTSV:
		return tw.RenderTSV(), nil
	default:
		return tw.Render(), nil
	}
}

// String renders the table in the pretty format.
func (t *Table) String() string {
	s, _ := t.Render(FormatPretty) //nolint:errcheck // pretty never fails
	return s
}

// simpleStyle draws no borders and a dashed line under the header.
func simpleStyle() prettytable.Style {
	s := prettytable.StyleDefault
	s.Name = "simple"
	s.Box.MiddleVertical = " "
	s.Box.MiddleSeparator = " "
	s.Box.MiddleHorizontal = "-"
	s.Options.DrawBorder = false
	s.Options.SeparateColumns = true
	s.Options.SeparateHeader = true
	s.Options.SeparateRows = false
	return s
}

// ReadCSV reads a table from CSV. The first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoColumns
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		t.AddRow(rec...)
	}
	return t, nil
}
