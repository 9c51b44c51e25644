package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// TrialBalanceRow aggregates one account's movement over the period.
type TrialBalanceRow struct {
	AccountID   uint              `json:"account_id"`
	AccountCode string            `json:"account_code"`
	AccountName string            `json:"account_name"`
	AccountType model.AccountType `json:"account_type"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
}

// TrialBalance lists per-account debit and credit totals. The two sides are
// reported as they stand; entries are never forced to balance, so the
// Balanced flag is informational.
type TrialBalance struct {
	From        string            `json:"from,omitempty"`
	To          string            `json:"to,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// BuildTrialBalance aggregates ledger entries per account over [from, to].
// Accounts without movement in the period are omitted. Rows are sorted by
// account code.
func BuildTrialBalance(accounts []model.Account, entries []model.LedgerEntry, from, to time.Time) TrialBalance {
	idx := accountIndex(accounts)
	rows := make(map[uint]*TrialBalanceRow)

	for _, e := range entries {
		if !inRange(e.Date, from, to) {
			continue
		}
		account, ok := idx[e.AccountID]
		if !ok {
			continue
		}
		row, ok := rows[e.AccountID]
		if !ok {
			row = &TrialBalanceRow{
				AccountID:   account.ID,
				AccountCode: account.Code,
				AccountName: account.Name,
				AccountType: account.Type,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
			}
			rows[e.AccountID] = row
		}
		row.Debit = row.Debit.Add(e.Debit)
		row.Credit = row.Credit.Add(e.Credit)
	}

	tb := TrialBalance{
		From:        formatDate(from),
		To:          formatDate(to),
		Rows:        make([]TrialBalanceRow, 0, len(rows)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, row := range rows {
		tb.Rows = append(tb.Rows, *row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool {
		return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode
	})
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)

	return tb
}
