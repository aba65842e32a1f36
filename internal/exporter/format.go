package exporter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatQuantity renders a quantity for settlement files. Whole amounts are
// written without decimals ("1200"); anything else gets exactly two
// decimals with a comma separator ("1234,50").
func FormatQuantity(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.String()
	}
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
