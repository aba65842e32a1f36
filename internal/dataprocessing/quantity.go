package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"settlecli/pkg/contracts/domain"
)

// leadingDecimal matches the longest decimal literal at the start of a string
var leadingDecimal = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseQuantity reads a quantity cell. Text follows the Argentine
// convention when both separators appear ("1.234,50" is 1234.5) and treats
// a lone comma as the decimal separator. Anything that does not start with
// a number yields zero.
func ParseQuantity(c domain.Cell) decimal.Decimal {
	switch c.Kind() {
	case domain.CellNumber:
		f, _ := c.Number()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(f)
	case domain.CellText:
		s, _ := c.Text()
		d, ok := parseLeadingDecimal(normalizeSeparators(strings.TrimSpace(s)))
		if !ok {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	switch {
	case hasComma && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case hasComma:
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

func parseLeadingDecimal(s string) (decimal.Decimal, bool) {
	m := leadingDecimal.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	mantissa := strings.TrimSuffix(m[2], ".")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	sign := m[1]
	if sign == "+" {
		sign = ""
	}
	literal := sign + mantissa + m[3]
	// Literals outside the float64 range become infinities or vanish, and
	// their decimal form would need a huge rescale on every sum.
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	if f == 0 {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CleanIdentifier keeps only the ASCII digits of an identifier cell.
// "20-12345678-9" becomes "20123456789"; "N/A" becomes "".
func CleanIdentifier(c domain.Cell) string {
	if !c.Truthy() {
		return ""
	}
	s := c.String()
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
