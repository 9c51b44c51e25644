package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// TypeTotals sums the normal-signed balance of every account type from all
// entries up to asOf. A zero asOf means no upper bound.
func TypeTotals(accounts []model.Account, entries []model.LedgerEntry, asOf time.Time) map[model.AccountType]decimal.Decimal {
	idx := accountIndex(accounts)
	totals := map[model.AccountType]decimal.Decimal{
		model.AccountAsset:     decimal.Zero,
		model.AccountLiability: decimal.Zero,
		model.AccountEquity:    decimal.Zero,
		model.AccountRevenue:   decimal.Zero,
		model.AccountExpense:   decimal.Zero,
	}
	for _, e := range entries {
		if !inRange(e.Date, time.Time{}, asOf) {
			continue
		}
		account, ok := idx[e.AccountID]
		if !ok {
			continue
		}
		totals[account.Type] = totals[account.Type].Add(normalBalance(account.Type, e.Debit, e.Credit))
	}
	return totals
}

// CashBalance sums the balance of every cash account up to asOf.
func CashBalance(accounts []model.Account, entries []model.LedgerEntry, asOf time.Time) decimal.Decimal {
	cash := make(map[uint]bool)
	for _, a := range accounts {
		if a.IsCash {
			cash[a.ID] = true
		}
	}
	balance := decimal.Zero
	for _, e := range entries {
		if !cash[e.AccountID] || !inRange(e.Date, time.Time{}, asOf) {
			continue
		}
		balance = balance.Add(e.Debit.Sub(e.Credit))
	}
	return balance
}

// FiscalYearStart returns the first day of the fiscal year containing now.
// startMonth is 1-12; out-of-range values fall back to January.
func FiscalYearStart(now time.Time, startMonth int) time.Time {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	start := time.Date(now.Year(), time.Month(startMonth), 1, 0, 0, 0, 0, now.Location())
	if now.Before(start) {
		start = time.Date(now.Year()-1, time.Month(startMonth), 1, 0, 0, 0, 0, now.Location())
	}
	return start
}

// Ratio is one entry in the financial ratio catalog. Available is false when
// the denominator is zero, in which case Value is zero.
type Ratio struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Available   bool            `json:"available"`
}

// BuildRatios computes the ratio catalog from cumulative balances up to asOf.
func BuildRatios(accounts []model.Account, entries []model.LedgerEntry, asOf time.Time) []Ratio {
	totals := TypeTotals(accounts, entries, asOf)
	cash := CashBalance(accounts, entries, asOf)

	assets := totals[model.AccountAsset]
	liabilities := totals[model.AccountLiability]
	revenue := totals[model.AccountRevenue]
	expenses := totals[model.AccountExpense]
	netProfit := revenue.Sub(expenses)
	// Accumulated earnings count as equity, as on the balance sheet.
	equity := totals[model.AccountEquity].Add(netProfit)

	return []Ratio{
		ratio("cash_ratio", "Cash Ratio",
			"Cash balance over total liabilities", cash, liabilities),
		ratio("debt_ratio", "Debt Ratio",
			"Total liabilities over total assets", liabilities, assets),
		ratio("debt_to_equity", "Debt to Equity",
			"Total liabilities over total equity", liabilities, equity),
		ratio("equity_ratio", "Equity Ratio",
			"Total equity over total assets", equity, assets),
		ratio("net_margin", "Net Profit Margin",
			"Net profit over revenue", netProfit, revenue),
		ratio("expense_ratio", "Expense Ratio",
			"Total expenses over revenue", expenses, revenue),
		ratio("return_on_assets", "Return on Assets",
			"Net profit over total assets", netProfit, assets),
		ratio("return_on_equity", "Return on Equity",
			"Net profit over total equity", netProfit, equity),
	}
}

func ratio(key, name, description string, num, den decimal.Decimal) Ratio {
	r := Ratio{
		Key:         key,
		Name:        name,
		Description: description,
		Value:       decimal.Zero,
	}
	if !den.IsZero() {
		r.Value = num.Div(den).Round(4)
		r.Available = true
	}
	return r
}
