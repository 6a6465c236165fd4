package model

import (
	"time"
)

// Product is a tracked product page.
type Product struct {
	// Name identifies the product in reports and price history.
	Name string `json:"name"`

	// URL is the product page.
	URL string `json:"url"`

	// Selector is the CSS selector of the price element.
	Selector string `json:"selector"`

	// Attribute, when set, reads the price from this attribute of the
	// matched element instead of its text.
	Attribute string `json:"attribute,omitempty"`

	// Currency is the ISO 4217 code prices are reported in.
	Currency string `json:"currency"`

	// TargetPrice flags prices at or below it. Zero disables the check.
	TargetPrice float64 `json:"target_price,omitempty"`

	// Headers are sent with the product request, including any Cookie.
	Headers map[string]string `json:"-"`
}

// HasTarget reports whether a target price is configured.
func (p Product) HasTarget() bool {
	return p.TargetPrice > 0
}

// Observation is a price recorded for a product at a point in time.
type Observation struct {
	// ID is the database row id. Zero for unsaved observations.
	ID int64 `json:"id,omitempty"`

	// Product is the product name.
	Product string `json:"product"`

	// URL is the page the price was read from.
	URL string `json:"url"`

	// Price is the parsed price.
	Price float64 `json:"price"`

	// Currency is the ISO 4217 code of Price.
	Currency string `json:"currency"`

	// PriceText is the raw text the price was parsed from.
	PriceText string `json:"price_text,omitempty"`

	// StatusCode is the HTTP status of the product page.
	StatusCode int `json:"status_code,omitempty"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// Hash is the hex SHA3-256 of the page body.
	Hash string `json:"hash,omitempty"`

	// ObservedAt is when the page was fetched.
	ObservedAt time.Time `json:"observed_at"`
}

// Formatted returns the price with its currency, for example "USD 1,299.99".
func (o *Observation) Formatted() string {
	if o == nil {
		return "-"
	}
	return FormatPrice(o.Price, o.Currency)
}

// Snapshot is the last seen state of a product page, keyed by URL.
type Snapshot struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}
