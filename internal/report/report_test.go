package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var testAccounts = []model.Account{
	{ID: 1, Code: "1000", Name: "Cash", Type: model.AccountAsset, IsCash: true},
	{ID: 2, Code: "1100", Name: "Accounts Receivable", Type: model.AccountAsset},
	{ID: 3, Code: "2000", Name: "Accounts Payable", Type: model.AccountLiability},
	{ID: 4, Code: "3000", Name: "Owner's Equity", Type: model.AccountEquity},
	{ID: 5, Code: "4000", Name: "Sales Revenue", Type: model.AccountRevenue},
	{ID: 6, Code: "6100", Name: "Rent", Type: model.AccountExpense},
}

func le(id, accountID uint, date, debit, credit string) model.LedgerEntry {
	return model.LedgerEntry{
		ID:        id,
		TenantID:  1,
		AccountID: accountID,
		Date:      day(date),
		Debit:     d(debit),
		Credit:    d(credit),
	}
}

// A small books-of-account scenario:
//
//	Jan 05  owner invests 10000 cash
//	Jan 20  cash sale 5000
//	Feb 10  rent 2000 paid from cash
//	Feb 15  credit sale 3000
//	Feb 20  rent 500 on account
func testEntries() []model.LedgerEntry {
	return []model.LedgerEntry{
		le(1, 1, "2025-01-05", "10000", "0"),
		le(2, 4, "2025-01-05", "0", "10000"),
		le(3, 1, "2025-01-20", "5000", "0"),
		le(4, 5, "2025-01-20", "0", "5000"),
		le(5, 6, "2025-02-10", "2000", "0"),
		le(6, 1, "2025-02-10", "0", "2000"),
		le(7, 2, "2025-02-15", "3000", "0"),
		le(8, 5, "2025-02-15", "0", "3000"),
		le(9, 6, "2025-02-20", "500", "0"),
		le(10, 3, "2025-02-20", "0", "500"),
	}
}

func TestBuildTrialBalance(t *testing.T) {
	tb := BuildTrialBalance(testAccounts, testEntries(), day("2025-01-01"), day("2025-01-31"))

	if len(tb.Rows) != 3 {
		t.Fatalf("rows = %d, want 3 (cash, equity, revenue)", len(tb.Rows))
	}
	// Sorted by account code.
	if tb.Rows[0].AccountCode != "1000" || tb.Rows[1].AccountCode != "3000" || tb.Rows[2].AccountCode != "4000" {
		t.Errorf("row order = %s %s %s, want 1000 3000 4000",
			tb.Rows[0].AccountCode, tb.Rows[1].AccountCode, tb.Rows[2].AccountCode)
	}
	if !tb.Rows[0].Debit.Equal(d("15000")) || !tb.Rows[0].Credit.IsZero() {
		t.Errorf("cash row = %s/%s, want 15000/0", tb.Rows[0].Debit, tb.Rows[0].Credit)
	}
	if !tb.TotalDebit.Equal(d("15000")) || !tb.TotalCredit.Equal(d("15000")) {
		t.Errorf("totals = %s/%s, want 15000/15000", tb.TotalDebit, tb.TotalCredit)
	}
	if !tb.Balanced {
		t.Error("balanced period reported as unbalanced")
	}
}

func TestBuildTrialBalance_Unbalanced(t *testing.T) {
	// A single one-sided entry is accepted and reported as it stands.
	entries := []model.LedgerEntry{le(1, 1, "2025-01-02", "700", "0")}
	tb := BuildTrialBalance(testAccounts, entries, time.Time{}, time.Time{})
	if tb.Balanced {
		t.Error("one-sided ledger reported as balanced")
	}
	if !tb.TotalDebit.Equal(d("700")) || !tb.TotalCredit.IsZero() {
		t.Errorf("totals = %s/%s, want 700/0", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestBuildTrialBalance_UnknownAccountSkipped(t *testing.T) {
	entries := []model.LedgerEntry{le(1, 99, "2025-01-02", "700", "0")}
	tb := BuildTrialBalance(testAccounts, entries, time.Time{}, time.Time{})
	if len(tb.Rows) != 0 {
		t.Errorf("rows = %d, want 0 for entry on unknown account", len(tb.Rows))
	}
}

func TestBuildProfitLoss(t *testing.T) {
	pl := BuildProfitLoss(testAccounts, testEntries(), day("2025-02-01"), day("2025-02-28"))

	if len(pl.Revenue) != 1 || !pl.Revenue[0].Amount.Equal(d("3000")) {
		t.Fatalf("revenue lines = %+v, want one line of 3000", pl.Revenue)
	}
	if len(pl.Expenses) != 1 || !pl.Expenses[0].Amount.Equal(d("2500")) {
		t.Fatalf("expense lines = %+v, want one line of 2500", pl.Expenses)
	}
	if !pl.TotalRevenue.Equal(d("3000")) {
		t.Errorf("total revenue = %s, want 3000", pl.TotalRevenue)
	}
	if !pl.TotalExpenses.Equal(d("2500")) {
		t.Errorf("total expenses = %s, want 2500", pl.TotalExpenses)
	}
	if !pl.NetProfit.Equal(d("500")) {
		t.Errorf("net profit = %s, want 500", pl.NetProfit)
	}
}

func TestBuildProfitLoss_FullPeriod(t *testing.T) {
	pl := BuildProfitLoss(testAccounts, testEntries(), time.Time{}, time.Time{})
	if !pl.TotalRevenue.Equal(d("8000")) {
		t.Errorf("total revenue = %s, want 8000", pl.TotalRevenue)
	}
	if !pl.NetProfit.Equal(d("5500")) {
		t.Errorf("net profit = %s, want 5500", pl.NetProfit)
	}
}

func TestBuildBalanceSheet(t *testing.T) {
	bs := BuildBalanceSheet(testAccounts, testEntries(), day("2025-03-31"))

	if !bs.TotalAssets.Equal(d("16000")) {
		t.Errorf("total assets = %s, want 16000", bs.TotalAssets)
	}
	if !bs.TotalLiabilities.Equal(d("500")) {
		t.Errorf("total liabilities = %s, want 500", bs.TotalLiabilities)
	}
	// Equity 10000 plus 5500 current period earnings.
	if !bs.TotalEquity.Equal(d("15500")) {
		t.Errorf("total equity = %s, want 15500", bs.TotalEquity)
	}
	if !bs.TotalLiabilitiesAndEquity.Equal(d("16000")) {
		t.Errorf("liabilities+equity = %s, want 16000", bs.TotalLiabilitiesAndEquity)
	}

	last := bs.Equity[len(bs.Equity)-1]
	if last.AccountName != "Current Period Earnings" || !last.Amount.Equal(d("5500")) {
		t.Errorf("earnings line = %+v, want Current Period Earnings 5500", last)
	}
}

func TestBuildBalanceSheet_AsOfCutoff(t *testing.T) {
	// As of end of January only the investment and the cash sale exist.
	bs := BuildBalanceSheet(testAccounts, testEntries(), day("2025-01-31"))
	if !bs.TotalAssets.Equal(d("15000")) {
		t.Errorf("total assets = %s, want 15000", bs.TotalAssets)
	}
	if !bs.TotalEquity.Equal(d("15000")) {
		t.Errorf("total equity = %s, want 15000 (10000 + 5000 earnings)", bs.TotalEquity)
	}
	if !bs.TotalLiabilities.IsZero() {
		t.Errorf("total liabilities = %s, want 0", bs.TotalLiabilities)
	}
}

func TestBuildAccountLedger(t *testing.T) {
	cash := testAccounts[0]
	ledger := BuildAccountLedger(cash, testEntries(), day("2025-02-01"), day("2025-02-28"))

	if !ledger.OpeningBalance.Equal(d("15000")) {
		t.Errorf("opening balance = %s, want 15000", ledger.OpeningBalance)
	}
	if len(ledger.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(ledger.Lines))
	}
	if !ledger.Lines[0].Balance.Equal(d("13000")) {
		t.Errorf("running balance = %s, want 13000", ledger.Lines[0].Balance)
	}
	if !ledger.ClosingBalance.Equal(d("13000")) {
		t.Errorf("closing balance = %s, want 13000", ledger.ClosingBalance)
	}
	if !ledger.TotalCredit.Equal(d("2000")) {
		t.Errorf("total credit = %s, want 2000", ledger.TotalCredit)
	}
}

func TestBuildAccountLedger_CreditNormal(t *testing.T) {
	revenue := testAccounts[4]
	ledger := BuildAccountLedger(revenue, testEntries(), time.Time{}, time.Time{})

	if len(ledger.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(ledger.Lines))
	}
	// Credits grow a revenue account.
	if !ledger.Lines[0].Balance.Equal(d("5000")) {
		t.Errorf("balance after first sale = %s, want 5000", ledger.Lines[0].Balance)
	}
	if !ledger.ClosingBalance.Equal(d("8000")) {
		t.Errorf("closing balance = %s, want 8000", ledger.ClosingBalance)
	}
}

func TestBuildAccountLedger_OrdersByDateThenID(t *testing.T) {
	cash := testAccounts[0]
	entries := []model.LedgerEntry{
		le(9, 1, "2025-01-10", "0", "30"),
		le(3, 1, "2025-01-10", "100", "0"),
		le(5, 1, "2025-01-02", "50", "0"),
	}
	ledger := BuildAccountLedger(cash, entries, time.Time{}, time.Time{})
	if len(ledger.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(ledger.Lines))
	}
	if ledger.Lines[0].EntryID != 5 || ledger.Lines[1].EntryID != 3 || ledger.Lines[2].EntryID != 9 {
		t.Errorf("line order = %d %d %d, want 5 3 9",
			ledger.Lines[0].EntryID, ledger.Lines[1].EntryID, ledger.Lines[2].EntryID)
	}
	if !ledger.ClosingBalance.Equal(d("120")) {
		t.Errorf("closing balance = %s, want 120", ledger.ClosingBalance)
	}
}

func TestBuildAccountLedger_NoLinesInRange(t *testing.T) {
	cash := testAccounts[0]
	ledger := BuildAccountLedger(cash, testEntries(), day("2025-06-01"), day("2025-06-30"))
	if len(ledger.Lines) != 0 {
		t.Fatalf("lines = %d, want 0", len(ledger.Lines))
	}
	if !ledger.OpeningBalance.Equal(d("13000")) || !ledger.ClosingBalance.Equal(d("13000")) {
		t.Errorf("opening/closing = %s/%s, want 13000/13000",
			ledger.OpeningBalance, ledger.ClosingBalance)
	}
}

func TestBuildCashflow(t *testing.T) {
	now := day("2025-03-15")
	cf := BuildCashflow(testAccounts, testEntries(), 3, now)

	if len(cf.Months) != 3 {
		t.Fatalf("months = %d, want 3", len(cf.Months))
	}
	if cf.Months[0].Month != "2025-01" || cf.Months[2].Month != "2025-03" {
		t.Errorf("window = %s..%s, want 2025-01..2025-03", cf.Months[0].Month, cf.Months[2].Month)
	}
	if !cf.Months[0].Inflow.Equal(d("15000")) || !cf.Months[0].Outflow.IsZero() {
		t.Errorf("january = %s/%s, want 15000/0", cf.Months[0].Inflow, cf.Months[0].Outflow)
	}
	if !cf.Months[1].Outflow.Equal(d("2000")) {
		t.Errorf("february outflow = %s, want 2000", cf.Months[1].Outflow)
	}
	// March has no cash movement but still gets a zero bucket.
	if !cf.Months[2].Inflow.IsZero() || !cf.Months[2].Outflow.IsZero() {
		t.Errorf("march = %s/%s, want 0/0", cf.Months[2].Inflow, cf.Months[2].Outflow)
	}
	if !cf.TotalNet.Equal(d("13000")) {
		t.Errorf("total net = %s, want 13000", cf.TotalNet)
	}
}

func TestBuildCashflow_ExcludesNonCashAccounts(t *testing.T) {
	now := day("2025-02-28")
	// The credit sale hits accounts receivable, not cash.
	cf := BuildCashflow(testAccounts, testEntries(), 2, now)
	if !cf.TotalInflow.Equal(d("15000")) {
		t.Errorf("total inflow = %s, want 15000 (AR movement excluded)", cf.TotalInflow)
	}
}

func TestTypeTotals(t *testing.T) {
	totals := TypeTotals(testAccounts, testEntries(), day("2025-03-31"))
	if !totals[model.AccountAsset].Equal(d("16000")) {
		t.Errorf("assets = %s, want 16000", totals[model.AccountAsset])
	}
	if !totals[model.AccountLiability].Equal(d("500")) {
		t.Errorf("liabilities = %s, want 500", totals[model.AccountLiability])
	}
	if !totals[model.AccountRevenue].Equal(d("8000")) {
		t.Errorf("revenue = %s, want 8000", totals[model.AccountRevenue])
	}
	if !totals[model.AccountExpense].Equal(d("2500")) {
		t.Errorf("expenses = %s, want 2500", totals[model.AccountExpense])
	}
}

func TestCashBalance(t *testing.T) {
	if got := CashBalance(testAccounts, testEntries(), day("2025-03-31")); !got.Equal(d("13000")) {
		t.Errorf("cash balance = %s, want 13000", got)
	}
	if got := CashBalance(testAccounts, testEntries(), day("2025-01-31")); !got.Equal(d("15000")) {
		t.Errorf("cash balance end of january = %s, want 15000", got)
	}
}

func TestFiscalYearStart(t *testing.T) {
	cases := []struct {
		now        string
		startMonth int
		want       string
	}{
		{"2025-08-23", 7, "2025-07-01"},
		{"2025-03-10", 7, "2024-07-01"},
		{"2025-07-01", 7, "2025-07-01"},
		{"2025-02-05", 1, "2025-01-01"},
		{"2025-02-05", 0, "2025-01-01"}, // out of range falls back to january
	}
	for _, tc := range cases {
		got := FiscalYearStart(day(tc.now), tc.startMonth)
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("FiscalYearStart(%s, %d) = %s, want %s",
				tc.now, tc.startMonth, got.Format("2006-01-02"), tc.want)
		}
	}
}

func TestBuildRatios(t *testing.T) {
	ratios := BuildRatios(testAccounts, testEntries(), day("2025-03-31"))

	byKey := make(map[string]Ratio)
	for _, r := range ratios {
		byKey[r.Key] = r
	}

	nm, ok := byKey["net_margin"]
	if !ok {
		t.Fatal("net_margin missing from catalog")
	}
	if !nm.Available {
		t.Error("net_margin unavailable with nonzero revenue")
	}
	// 5500 / 8000
	if !nm.Value.Equal(d("0.6875")) {
		t.Errorf("net_margin = %s, want 0.6875", nm.Value)
	}

	cr := byKey["cash_ratio"]
	// 13000 / 500
	if !cr.Value.Equal(d("26")) {
		t.Errorf("cash_ratio = %s, want 26", cr.Value)
	}
}

func TestBuildRatios_ZeroDenominators(t *testing.T) {
	ratios := BuildRatios(testAccounts, nil, day("2025-03-31"))
	for _, r := range ratios {
		if r.Available {
			t.Errorf("%s available on an empty ledger", r.Key)
		}
		if !r.Value.IsZero() {
			t.Errorf("%s = %s on an empty ledger, want 0", r.Key, r.Value)
		}
	}
}
