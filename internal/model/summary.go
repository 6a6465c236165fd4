package model

import (
	"time"

	"github.com/nao1215/pricepal/internal/table"
)

// Summary aggregates the reports of one tracking run.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Reports holds one report per tracked product, in configuration order.
	Reports []*TrackReport `json:"reports"`

	Total       int `json:"total"`
	Drops       int `json:"drops"`
	Rises       int `json:"rises"`
	Unchanged   int `json:"unchanged"`
	New         int `json:"new"`
	Failed      int `json:"failed"`
	BelowTarget int `json:"below_target"`
}

// SummaryColumns are the columns of Summary.Table.
var SummaryColumns = []string{"Product", "Price", "Previous", "Change", "Target", "Status"}

// NewSummary counts reports. Nil entries are skipped.
func NewSummary(reports []*TrackReport) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		Reports:     make([]*TrackReport, 0, len(reports)),
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Reports = append(s.Reports, r)
		s.Total++

		if r.Failed() {
			s.Failed++
			continue
		}
		if r.BelowTarget {
			s.BelowTarget++
		}
		switch r.Change {
		case ChangeDown:
			s.Drops++
		case ChangeUp:
			s.Rises++
		case ChangeUnchanged:
			s.Unchanged++
		case ChangeNew:
			s.New++
		}
	}

	return s
}

// Noteworthy reports whether any price moved, any target was reached or a
// product was seen for the first time.
func (s *Summary) Noteworthy() bool {
	return s.Drops+s.Rises+s.BelowTarget+s.New > 0
}

// Table renders one row per report.
func (s *Summary) Table() *table.Table {
	t := table.New(SummaryColumns...)
	for _, r := range s.Reports {
		price := "-"
		if r.Current != nil {
			price = r.Current.Formatted()
		}

		previous := "-"
		if r.Previous != nil {
			previous = r.Previous.Formatted()
		}

		change := r.Change.String()
		if r.Current != nil && r.Previous != nil && r.Change != ChangeUnchanged {
			change = FormatDelta(r.Delta, r.Product.Currency)
		}

		target := "-"
		if r.Product.HasTarget() {
			target = FormatPrice(r.Product.TargetPrice, r.Product.Currency)
		}

		t.AddRow(r.Product.Name, price, previous, change, target, r.Status())
	}
	return t
}
