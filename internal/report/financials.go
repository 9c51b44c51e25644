package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// StatementLine is one account's contribution to a financial statement.
type StatementLine struct {
	AccountID   uint            `json:"account_id,omitempty"`
	AccountCode string          `json:"account_code,omitempty"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// ProfitLoss is the income statement for a period. Revenue lines are signed
// credit minus debit, expense lines debit minus credit, so both read as
// positive numbers in the normal case.
type ProfitLoss struct {
	From          string          `json:"from,omitempty"`
	To            string          `json:"to,omitempty"`
	Revenue       []StatementLine `json:"revenue"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	Expenses      []StatementLine `json:"expenses"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

// BuildProfitLoss computes the income statement over [from, to]. Accounts
// without movement in the period are omitted.
func BuildProfitLoss(accounts []model.Account, entries []model.LedgerEntry, from, to time.Time) ProfitLoss {
	idx := accountIndex(accounts)

	type sums struct{ debit, credit decimal.Decimal }
	perAccount := make(map[uint]*sums)
	for _, e := range entries {
		if !inRange(e.Date, from, to) {
			continue
		}
		account, ok := idx[e.AccountID]
		if !ok || (account.Type != model.AccountRevenue && account.Type != model.AccountExpense) {
			continue
		}
		s, ok := perAccount[e.AccountID]
		if !ok {
			s = &sums{debit: decimal.Zero, credit: decimal.Zero}
			perAccount[e.AccountID] = s
		}
		s.debit = s.debit.Add(e.Debit)
		s.credit = s.credit.Add(e.Credit)
	}

	pl := ProfitLoss{
		From:          formatDate(from),
		To:            formatDate(to),
		Revenue:       []StatementLine{},
		Expenses:      []StatementLine{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for id, s := range perAccount {
		account := idx[id]
		line := StatementLine{
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Amount:      normalBalance(account.Type, s.debit, s.credit),
		}
		if account.Type == model.AccountRevenue {
			pl.Revenue = append(pl.Revenue, line)
			pl.TotalRevenue = pl.TotalRevenue.Add(line.Amount)
		} else {
			pl.Expenses = append(pl.Expenses, line)
			pl.TotalExpenses = pl.TotalExpenses.Add(line.Amount)
		}
	}
	sortLines(pl.Revenue)
	sortLines(pl.Expenses)
	pl.NetProfit = pl.TotalRevenue.Sub(pl.TotalExpenses)

	return pl
}

// BalanceSheet is the statement of financial position as of a date. Because
// entries are not forced to balance, total assets and total liabilities plus
// equity are both reported as they stand.
type BalanceSheet struct {
	AsOf                      string          `json:"as_of,omitempty"`
	Assets                    []StatementLine `json:"assets"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	Liabilities               []StatementLine `json:"liabilities"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	Equity                    []StatementLine `json:"equity"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

// BuildBalanceSheet computes cumulative account balances up to asOf. Earnings
// accumulated on revenue and expense accounts are folded into equity as a
// synthetic "Current Period Earnings" line.
func BuildBalanceSheet(accounts []model.Account, entries []model.LedgerEntry, asOf time.Time) BalanceSheet {
	idx := accountIndex(accounts)

	type sums struct{ debit, credit decimal.Decimal }
	perAccount := make(map[uint]*sums)
	for _, e := range entries {
		if !inRange(e.Date, time.Time{}, asOf) {
			continue
		}
		if _, ok := idx[e.AccountID]; !ok {
			continue
		}
		s, ok := perAccount[e.AccountID]
		if !ok {
			s = &sums{debit: decimal.Zero, credit: decimal.Zero}
			perAccount[e.AccountID] = s
		}
		s.debit = s.debit.Add(e.Debit)
		s.credit = s.credit.Add(e.Credit)
	}

	bs := BalanceSheet{
		AsOf:             formatDate(asOf),
		Assets:           []StatementLine{},
		Liabilities:      []StatementLine{},
		Equity:           []StatementLine{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	earnings := decimal.Zero
	for id, s := range perAccount {
		account := idx[id]
		amount := normalBalance(account.Type, s.debit, s.credit)
		line := StatementLine{
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Amount:      amount,
		}
		switch account.Type {
		case model.AccountAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(amount)
		case model.AccountLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(amount)
		case model.AccountEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(amount)
		case model.AccountRevenue:
			earnings = earnings.Add(amount)
		case model.AccountExpense:
			earnings = earnings.Sub(amount)
		}
	}
	sortLines(bs.Assets)
	sortLines(bs.Liabilities)
	sortLines(bs.Equity)
	if !earnings.IsZero() {
		bs.Equity = append(bs.Equity, StatementLine{
			AccountName: "Current Period Earnings",
			Amount:      earnings,
		})
		bs.TotalEquity = bs.TotalEquity.Add(earnings)
	}
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)

	return bs
}

func sortLines(lines []StatementLine) {
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].AccountCode < lines[j].AccountCode
	})
}
