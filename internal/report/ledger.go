package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// LedgerLine is one ledger entry with the running balance after it.
type LedgerLine struct {
	EntryID     uint            `json:"entry_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	SourceType  string          `json:"source_type,omitempty"`
	SourceID    uint            `json:"source_id,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountLedger is the statement view of a single account: the balance
// carried in from before the period, each movement with its running balance,
// and the closing balance. Balances are signed by the account's normal side.
type AccountLedger struct {
	AccountID      uint              `json:"account_id"`
	AccountCode    string            `json:"account_code"`
	AccountName    string            `json:"account_name"`
	AccountType    model.AccountType `json:"account_type"`
	From           string            `json:"from,omitempty"`
	To             string            `json:"to,omitempty"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	Lines          []LedgerLine      `json:"lines"`
	TotalDebit     decimal.Decimal   `json:"total_debit"`
	TotalCredit    decimal.Decimal   `json:"total_credit"`
	ClosingBalance decimal.Decimal   `json:"closing_balance"`
}

// BuildAccountLedger expects every ledger entry of the account, in any
// order. Entries dated before from roll into the opening balance; entries
// after to are dropped.
func BuildAccountLedger(account model.Account, entries []model.LedgerEntry, from, to time.Time) AccountLedger {
	sorted := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.AccountID != account.ID {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	ledger := AccountLedger{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		AccountType:    account.Type,
		From:           formatDate(from),
		To:             formatDate(to),
		OpeningBalance: decimal.Zero,
		Lines:          []LedgerLine{},
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	// Roll everything before the period into the opening balance.
	balance := decimal.Zero
	i := 0
	for ; i < len(sorted); i++ {
		e := sorted[i]
		if from.IsZero() || !e.Date.Before(from) {
			break
		}
		balance = balance.Add(normalBalance(account.Type, e.Debit, e.Credit))
	}
	ledger.OpeningBalance = balance

	for ; i < len(sorted); i++ {
		e := sorted[i]
		if !to.IsZero() && e.Date.After(to) {
			break
		}
		balance = balance.Add(normalBalance(account.Type, e.Debit, e.Credit))
		ledger.Lines = append(ledger.Lines, LedgerLine{
			EntryID:     e.ID,
			Date:        formatDate(e.Date),
			Description: e.Description,
			SourceType:  e.SourceType,
			SourceID:    e.SourceID,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Balance:     balance,
		})
		ledger.TotalDebit = ledger.TotalDebit.Add(e.Debit)
		ledger.TotalCredit = ledger.TotalCredit.Add(e.Credit)
	}
	ledger.ClosingBalance = balance

	return ledger
}
