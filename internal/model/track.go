package model

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TrackReport is the result of tracking one product in one run.
// The pipeline steps fill it in order.
type TrackReport struct {
	// Product is the tracked product.
	Product Product `json:"product"`

	// StartedAt is when tracking of the product started.
	StartedAt time.Time `json:"started_at"`

	// Current is the observation made in this run. Nil when the price could
	// not be read.
	Current *Observation `json:"current,omitempty"`

	// Previous is the latest stored observation before this run.
	Previous *Observation `json:"previous,omitempty"`

	// Change compares Current with Previous.
	Change Change `json:"change"`

	// Delta is Current.Price - Previous.Price. Zero when either is missing.
	Delta float64 `json:"delta,omitempty"`

	// BelowTarget is true when Current is at or below the product's target.
	BelowTarget bool `json:"below_target"`

	// StatusCode is the HTTP status of the product page.
	StatusCode int `json:"status_code,omitempty"`

	// PageChanged is true when the page body differs from the last snapshot.
	PageChanged bool `json:"page_changed"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut is true if the run was cancelled before all steps ran.
	TimedOut bool `json:"timed_out"`

	// Error is the first step error.
	Error error `json:"-"`

	// ErrorMessage is Error as a string for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// Page state handed from the fetch step to later steps.
	Doc       *goquery.Document `json:"-"`
	PageTitle string            `json:"-"`
	PageHash  string            `json:"-"`
	FinalURL  string            `json:"-"`
}

// NewTrackReport creates a report for p.
func NewTrackReport(p Product) *TrackReport {
	return &TrackReport{
		Product:   p,
		StartedAt: time.Now(),
	}
}

// SetError records err unless an earlier error is already recorded.
func (r *TrackReport) SetError(err error) {
	if err == nil || r.Error != nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// Failed reports whether no price was observed.
func (r *TrackReport) Failed() bool {
	return r.Current == nil
}

// Status returns a short status word for tables: "error", "timeout",
// "target" or the change name.
func (r *TrackReport) Status() string {
	switch {
	case r.TimedOut && r.Current == nil:
		return "timeout"
	case r.Current == nil:
		return "error"
	case r.BelowTarget:
		return "target"
	default:
		return r.Change.String()
	}
}
