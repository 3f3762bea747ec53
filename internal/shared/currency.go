package shared

import (
	"golang.org/x/text/currency"
)

// DefaultCurrency is applied when a request omits the currency code.
const DefaultCurrency = "XOF"

// NormalizeCurrency validates a 3-letter ISO-4217 code and returns its
// canonical uppercase form. An empty code falls back to DefaultCurrency.
func NormalizeCurrency(code string) (string, error) {
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ValidationErrorf("invalid currency code %q", code)
	}
	return unit.String(), nil
}
