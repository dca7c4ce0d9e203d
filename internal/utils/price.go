package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders a price rounded to whole units with comma thousands
// separators, e.g. 1250000.5 -> "1,250,001".
func FormatPrice(price decimal.Decimal) string {
	digits := price.Round(0).String()

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
