package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency used for premiums, plans and ledger balances.
const Currency = "GTQ"

func init() {
	// Amounts are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatQuetzales renders an amount as "Q1,234.56".
func FormatQuetzales(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%sQ%s.%s", sign, b.String(), frac)
}
