package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidCurrency is returned for codes that are not ISO 4217 currencies.
var ErrInvalidCurrency = errors.New("invalid ISO 4217 currency code")

var printer = message.NewPrinter(language.English)

// ValidateCurrency returns the canonical upper-case form of code.
func ValidateCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// FormatPrice renders amount with English digit grouping and the standard
// number of decimals for the currency, prefixed by the code.
// Unknown codes fall back to two decimals.
func FormatPrice(amount float64, code string) string {
	scale := 2
	code = strings.ToUpper(code)
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}

	formatted := printer.Sprint(number.Decimal(amount, number.Scale(scale)))
	if code == "" {
		return formatted
	}
	return code + " " + formatted
}

// FormatDelta renders a signed price difference, for example "-12.50".
func FormatDelta(delta float64, code string) string {
	sign := "+"
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	scale := 2
	if unit, err := currency.ParseISO(strings.ToUpper(code)); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	return sign + printer.Sprint(number.Decimal(delta, number.Scale(scale)))
}
