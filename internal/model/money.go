package model

import "github.com/shopspring/decimal"

// LineAmount computes quantity x unit price rounded to two places.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// TaxOn applies a percentage rate to an amount, rounded to two places.
func TaxOn(amount, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}
