package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// CashflowMonth is one month of movement across the cash accounts. Inflow
// is the debit side (money arriving), outflow the credit side.
type CashflowMonth struct {
	Month   string          `json:"month"` // "2006-01"
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// Cashflow is the monthly cash movement over a trailing window, oldest
// month first. Months without movement appear with zero values.
type Cashflow struct {
	Months       []CashflowMonth `json:"months"`
	TotalInflow  decimal.Decimal `json:"total_inflow"`
	TotalOutflow decimal.Decimal `json:"total_outflow"`
	TotalNet     decimal.Decimal `json:"total_net"`
}

// BuildCashflow buckets entries on cash accounts into the last months
// calendar months ending with the month of now. Entries on non-cash
// accounts or outside the window are ignored.
func BuildCashflow(accounts []model.Account, entries []model.LedgerEntry, months int, now time.Time) Cashflow {
	if months < 1 {
		months = 1
	}

	cash := make(map[uint]bool)
	for _, a := range accounts {
		if a.IsCash {
			cash[a.ID] = true
		}
	}

	// First day of the oldest month in the window.
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -(months - 1), 0)

	buckets := make(map[string]*CashflowMonth, months)
	order := make([]string, 0, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		buckets[key] = &CashflowMonth{
			Month:   key,
			Inflow:  decimal.Zero,
			Outflow: decimal.Zero,
			Net:     decimal.Zero,
		}
		order = append(order, key)
	}

	for _, e := range entries {
		if !cash[e.AccountID] {
			continue
		}
		bucket, ok := buckets[e.Date.Format("2006-01")]
		if !ok {
			continue
		}
		bucket.Inflow = bucket.Inflow.Add(e.Debit)
		bucket.Outflow = bucket.Outflow.Add(e.Credit)
	}

	cf := Cashflow{
		Months:       make([]CashflowMonth, 0, months),
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
	}
	for _, key := range order {
		bucket := buckets[key]
		bucket.Net = bucket.Inflow.Sub(bucket.Outflow)
		cf.Months = append(cf.Months, *bucket)
		cf.TotalInflow = cf.TotalInflow.Add(bucket.Inflow)
		cf.TotalOutflow = cf.TotalOutflow.Add(bucket.Outflow)
	}
	cf.TotalNet = cf.TotalInflow.Sub(cf.TotalOutflow)

	return cf
}
