package report

import (
	"fmt"
	"strings"

	"github.com/nao1215/pricepal/internal/model"
	"github.com/nao1215/pricepal/internal/table"
)

// Email is the content of a price notification.
type Email struct {
	Subject string
	Message string
	Table   *table.Table
}

// EmailBody builds the notification for summary. subject replaces the
// default subject prefix when not empty. Drops and reached targets are
// listed before the counts.
func EmailBody(summary *model.Summary, subject string) Email {
	if subject == "" {
		subject = "PricePal price report"
	}
	switch {
	case summary.BelowTarget > 0:
		subject = fmt.Sprintf("%s: %d at or below target", subject, summary.BelowTarget)
	case summary.Drops > 0:
		subject = fmt.Sprintf("%s: %d price drop(s)", subject, summary.Drops)
	}

	var lines []string
	for _, r := range summary.Reports {
		if r.Current == nil {
			continue
		}
		switch {
		case r.BelowTarget:
			lines = append(lines, fmt.Sprintf("%s is %s (target %s)",
				r.Product.Name, r.Current.Formatted(),
				model.FormatPrice(r.Product.TargetPrice, r.Product.Currency)))
		case r.Change == model.ChangeDown:
			lines = append(lines, fmt.Sprintf("%s dropped to %s (was %s)",
				r.Product.Name, r.Current.Formatted(), r.Previous.Formatted()))
		}
	}
	lines = append(lines, CountsLine(summary)+".")

	return Email{
		Subject: subject,
		Message: strings.Join(lines, "\n"),
		Table:   summary.Table(),
	}
}
