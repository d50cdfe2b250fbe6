package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah formats an amount as Indonesian rupiah with thousands dots,
// e.g. 36000000 -> "Rp 36.000.000". Fractional rupiah are not displayed.
func FormatRupiah(amount decimal.Decimal) string {
	whole := amount.Truncate(0).String()

	negative := strings.HasPrefix(whole, "-")
	digits := strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "Rp " + b.String()
	if negative {
		out = "-" + out
	}
	return out
}
