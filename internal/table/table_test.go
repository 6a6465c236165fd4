package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func stockTable() *Table {
	t := New("location", "stock")
	t.AddRow("ottawa", "1")
	t.AddRow("cambridge", "5+")
	t.AddRow("waterloo", "-")
	return t
}

func TestAddRow(t *testing.T) {
	t.Parallel()

	tbl := New("a", "b", "c")
	tbl.AddRow("1")
	tbl.AddRow("1", "2", "3", "4")

	want := [][]string{{"1", "", ""}, {"1", "2", "3"}}
	if diff := cmp.Diff(want, tbl.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	tbl := stockTable()

	t.Run("pretty keeps header case and has no index", func(t *testing.T) {
		t.Parallel()

		out, err := tbl.Render(FormatPretty)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(out, "location") || strings.Contains(out, "LOCATION") {
			t.Errorf("unexpected header casing:\n%s", out)
		}
		if !strings.Contains(out, "| cambridge |") {
			t.Errorf("expected left-aligned first column:\n%s", out)
		}
		if strings.Contains(out, "| 0 ") {
			t.Errorf("unexpected index column:\n%s", out)
		}
		if out != tbl.String() {
			t.Error("String() differs from pretty render")
		}
	})

	t.Run("empty format is pretty", func(t *testing.T) {
		t.Parallel()

		a, _ := tbl.Render("")
		b, _ := tbl.Render(FormatPretty)
		if a != b {
			t.Error("expected empty format to render pretty")
		}
	})

	t.Run("grid separates rows", func(t *testing.T) {
		t.Parallel()

		pretty, _ := tbl.Render(FormatPretty)
		grid, err := tbl.Render(FormatGrid)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if strings.Count(grid, "\n") <= strings.Count(pretty, "\n") {
			t.Errorf("expected more lines in grid output:\n%s", grid)
		}
	})

	t.Run("simple has no borders", func(t *testing.T) {
		t.Parallel()

		out, err := tbl.Render(FormatSimple)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		lines := strings.Split(out, "\n")
		if len(lines) < 2 {
			t.Fatalf("expected a header rule:\n%s", out)
		}
		if strings.Contains(out, "|") {
			t.Errorf("unexpected column borders:\n%s", out)
		}
		rule := lines[1]
		if strings.Trim(rule, "- ") != "" || !strings.Contains(rule, "---") {
			t.Errorf("header rule %q should hold only dashes and spaces", rule)
		}
	})

	t.Run("html centers header and escapes", func(t *testing.T) {
		t.Parallel()

		esc := New("name", "note")
		esc.AddRow("<b>kettle</b>", "a & b")

		out, err := esc.Render(FormatHTML)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		for _, want := range []string{"<table", HTMLClass, "<th", "center", "&lt;b&gt;kettle&lt;/b&gt;", "a &amp; b"} {
			if !strings.Contains(out, want) {
				t.Errorf("html output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "<b>kettle</b>") {
			t.Errorf("cell text was not escaped:\n%s", out)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		out, err := tbl.Render(FormatMarkdown)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(out, "| location | stock |") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("csv and tsv", func(t *testing.T) {
		t.Parallel()

		csvOut, err := tbl.Render(FormatCSV)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.HasPrefix(csvOut, "location,stock\n") {
			t.Errorf("unexpected csv:\n%s", csvOut)
		}

		tsvOut, err := tbl.Render(FormatTSV)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.HasPrefix(tsvOut, "location\tstock\n") {
			t.Errorf("unexpected tsv:\n%s", tsvOut)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		if _, err := tbl.Render(Format("latex")); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, f := range Formats {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if got, _ := ParseFormat(""); got != FormatPretty {
		t.Errorf("ParseFormat(\"\") = %q", got)
	}
	if _, err := ParseFormat("fancy_grid"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	t.Run("header and rows", func(t *testing.T) {
		t.Parallel()

		tbl, err := ReadCSV(strings.NewReader("location, stock\nottawa, 1\ncambridge\n"))
		if err != nil {
			t.Fatalf("ReadCSV() error = %v", err)
		}
		want := &Table{
			Columns: []string{"location", "stock"},
			Rows:    [][]string{{"ottawa", "1"}, {"cambridge", ""}},
		}
		if diff := cmp.Diff(want, tbl); diff != "" {
			t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrNoColumns) {
			t.Errorf("expected ErrNoColumns, got %v", err)
		}
	})
}
