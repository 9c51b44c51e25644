// Package export renders reports and documents into spreadsheet and PDF
// form for download.
package export

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a decimal amount with the currency's fraction digits
// and grouping rules, prefixed by the ISO code, e.g. "NPR 1,234.50". The ISO
// code is used instead of the currency symbol so the output survives the
// core PDF fonts.
func FormatAmount(value decimal.Decimal, code string) string {
	// The Money constructor never returns a nil currency, unknown codes
	// included.
	cur := *money.New(0, code).Currency()
	formatter := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, cur.Code, "$ 1")
	shifted := value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return formatter.Format(shifted.IntPart())
}
