package config

import (
	"fmt"
	"strings"
)

// Product describes a single tracked product page.
type Product struct {
	// Name identifies the product in reports and price history.
	Name string `yaml:"name"`

	// URL is the product page to fetch.
	URL string `yaml:"url"`

	// Selector is the CSS selector of the element holding the price.
	Selector string `yaml:"selector"`

	// Attribute reads the price from an attribute of the matched element
	// (for example "content" on a <meta itemprop="price">) instead of its text.
	Attribute string `yaml:"attribute,omitempty"`

	// Currency is the ISO 4217 code of the price. Falls back to the defaults.
	Currency string `yaml:"currency,omitempty"`

	// TargetPrice flags observations at or below this price. Zero disables it.
	TargetPrice float64 `yaml:"target_price,omitempty"`

	// Cookie is an HTTP cookie to send with the request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in the request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Defaults holds request settings shared by all products.
type Defaults struct {
	// UserAgent overrides the User-Agent header for all products.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Currency is the default ISO 4217 currency code.
	Currency string `yaml:"currency,omitempty"`

	// Cookie is sent with every request unless a product sets its own.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are merged into each product's headers; product values win.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Notify configures where price reports are delivered.
type Notify struct {
	// Provider is smtp, ses or noop.
	Provider string `yaml:"provider,omitempty"`

	// Recipients receive the price report.
	Recipients []string `yaml:"recipients,omitempty"`

	// Credentials is the path to the JSON credentials file (smtp only).
	Credentials string `yaml:"credentials,omitempty"`

	// Subject overrides the default email subject.
	Subject string `yaml:"subject,omitempty"`

	// OnlyOnChange suppresses the email when no price moved and no target was hit.
	OnlyOnChange bool `yaml:"only_on_change,omitempty"`

	// SESRegion is the AWS region used by the ses provider.
	SESRegion string `yaml:"ses_region,omitempty"`

	// From is the sender address used by the ses provider.
	From string `yaml:"from,omitempty"`
}

// File represents the structure of the .pricepal project file.
type File struct {
	// Defaults apply to every product unless overridden.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Products lists the tracked product pages in file order.
	Products []Product `yaml:"products,omitempty"`

	// Notify configures email delivery of price reports.
	Notify Notify `yaml:"notify,omitempty"`
}

// Lookup returns the product with the given name (case-insensitive).
func (f *File) Lookup(name string) (Product, bool) {
	for _, p := range f.Products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Product{}, false
}

// Resolve returns the product with defaults applied.
// Product values always win over defaults; headers are merged key by key.
func (f *File) Resolve(p Product) Product {
	result := p

	if result.Currency == "" {
		result.Currency = f.Defaults.Currency
	}
	if result.Currency == "" {
		result.Currency = DefaultCurrency
	}
	result.Currency = strings.ToUpper(result.Currency)

	if result.Cookie == "" {
		result.Cookie = f.Defaults.Cookie
	}

	if len(f.Defaults.Headers) > 0 || len(p.Headers) > 0 {
		merged := make(map[string]string, len(f.Defaults.Headers)+len(p.Headers))
		for k, v := range f.Defaults.Headers {
			merged[k] = v
		}
		for k, v := range p.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	return result
}

// Validate checks every product entry and the notify provider.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		if p.Name == "" || p.URL == "" || p.Selector == "" {
			return fmt.Errorf("%w (entry %d)", ErrInvalidProduct, i+1)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, p.Name)
		}
		seen[key] = true
	}

	switch f.Notify.Provider {
	case "", ProviderSMTP, ProviderSES, ProviderNoop:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, f.Notify.Provider)
	}

	return nil
}

// ProviderName returns the configured provider or the default.
func (n Notify) ProviderName() string {
	if n.Provider == "" {
		return DefaultProvider
	}
	return n.Provider
}
