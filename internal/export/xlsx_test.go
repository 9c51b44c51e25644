package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xuri/excelize/v2"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("generated workbook does not open: %v", err)
	}
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
	}
	return v
}

func rawCell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
	}
	return v
}

func TestTrialBalanceXLSX(t *testing.T) {
	tb := report.TrialBalance{
		From: "2025-01-01",
		To:   "2025-01-31",
		Rows: []report.TrialBalanceRow{
			{AccountCode: "1000", AccountName: "Cash", AccountType: model.AccountAsset, Debit: d("15000"), Credit: d("0")},
			{AccountCode: "4000", AccountName: "Sales Revenue", AccountType: model.AccountRevenue, Debit: d("0"), Credit: d("15000")},
		},
		TotalDebit:  d("15000"),
		TotalCredit: d("15000"),
		Balanced:    true,
	}

	data, err := TrialBalanceXLSX(tb)
	if err != nil {
		t.Fatalf("TrialBalanceXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Trial Balance"
	if got := cell(t, f, sheet, "A1"); got != "Code" {
		t.Errorf("A1 = %q, want Code", got)
	}
	if got := cell(t, f, sheet, "B2"); got != "Cash" {
		t.Errorf("B2 = %q, want Cash", got)
	}
	if got := rawCell(t, f, sheet, "D2"); got != "15000" {
		t.Errorf("D2 raw = %q, want 15000", got)
	}
	// Totals land on the row after the account rows.
	if got := cell(t, f, sheet, "B4"); got != "Total" {
		t.Errorf("B4 = %q, want Total", got)
	}
	if got := rawCell(t, f, sheet, "E4"); got != "15000" {
		t.Errorf("E4 raw = %q, want 15000", got)
	}
	if got := cell(t, f, sheet, "A6"); !strings.Contains(got, "2025-01-01") {
		t.Errorf("period note = %q, want it to mention 2025-01-01", got)
	}
}

func TestProfitLossXLSX(t *testing.T) {
	pl := report.ProfitLoss{
		Revenue:       []report.StatementLine{{AccountCode: "4000", AccountName: "Sales Revenue", Amount: d("8000")}},
		TotalRevenue:  d("8000"),
		Expenses:      []report.StatementLine{{AccountCode: "6100", AccountName: "Rent", Amount: d("2500")}},
		TotalExpenses: d("2500"),
		NetProfit:     d("5500"),
	}

	data, err := ProfitLossXLSX(pl)
	if err != nil {
		t.Fatalf("ProfitLossXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Profit and Loss"
	// Layout: headers, Revenue section (title+line+total), blank,
	// Expenses section, blank, net profit.
	if got := cell(t, f, sheet, "A2"); got != "Revenue" {
		t.Errorf("A2 = %q, want Revenue", got)
	}
	if got := cell(t, f, sheet, "B3"); got != "Sales Revenue" {
		t.Errorf("B3 = %q, want Sales Revenue", got)
	}
	if got := cell(t, f, sheet, "B4"); got != "Total Revenue" {
		t.Errorf("B4 = %q, want Total Revenue", got)
	}
	if got := cell(t, f, sheet, "A6"); got != "Expenses" {
		t.Errorf("A6 = %q, want Expenses", got)
	}
	if got := cell(t, f, sheet, "B10"); got != "Net Profit" {
		t.Errorf("B10 = %q, want Net Profit", got)
	}
	if got := rawCell(t, f, sheet, "C10"); got != "5500" {
		t.Errorf("C10 raw = %q, want 5500", got)
	}
}

func TestBalanceSheetXLSX(t *testing.T) {
	bs := report.BalanceSheet{
		AsOf:        "2025-03-31",
		Assets:      []report.StatementLine{{AccountCode: "1000", AccountName: "Cash", Amount: d("13000")}},
		TotalAssets: d("13000"),
		Liabilities: []report.StatementLine{},
		Equity: []report.StatementLine{
			{AccountCode: "3000", AccountName: "Owner's Equity", Amount: d("10000")},
			{AccountName: "Current Period Earnings", Amount: d("3000")},
		},
		TotalEquity:               d("13000"),
		TotalLiabilitiesAndEquity: d("13000"),
	}

	data, err := BalanceSheetXLSX(bs)
	if err != nil {
		t.Fatalf("BalanceSheetXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Balance Sheet"
	if got := cell(t, f, sheet, "A2"); got != "Assets" {
		t.Errorf("A2 = %q, want Assets", got)
	}
	if got := rawCell(t, f, sheet, "C4"); got != "13000" {
		t.Errorf("C4 raw = %q, want 13000 (total assets)", got)
	}
}

func TestAccountLedgerXLSX(t *testing.T) {
	l := report.AccountLedger{
		AccountCode:    "1000",
		AccountName:    "Cash",
		AccountType:    model.AccountAsset,
		OpeningBalance: d("15000"),
		Lines: []report.LedgerLine{
			{EntryID: 6, Date: "2025-02-10", Description: "rent", SourceType: "journal", Debit: d("0"), Credit: d("2000"), Balance: d("13000")},
		},
		TotalDebit:     d("0"),
		TotalCredit:    d("2000"),
		ClosingBalance: d("13000"),
	}

	data, err := AccountLedgerXLSX(l)
	if err != nil {
		t.Fatalf("AccountLedgerXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Account Ledger"
	if got := cell(t, f, sheet, "B2"); !strings.Contains(got, "opening balance") {
		t.Errorf("B2 = %q, want opening balance row", got)
	}
	if got := rawCell(t, f, sheet, "F3"); got != "13000" {
		t.Errorf("F3 raw = %q, want 13000", got)
	}
	if got := cell(t, f, sheet, "B4"); got != "Closing balance" {
		t.Errorf("B4 = %q, want Closing balance", got)
	}
}

func TestInvoiceRegisterXLSX(t *testing.T) {
	invoices := []model.Invoice{
		{
			Number:     "INV-0001",
			Status:     model.InvoiceSent,
			Currency:   "NPR",
			IssueDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			DueDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Subtotal:   d("1000"),
			TaxAmount:  d("130"),
			Total:      d("1130"),
			AmountPaid: d("500"),
			Customer:   model.Customer{Name: "Himalaya Traders"},
		},
	}

	data, err := InvoiceRegisterXLSX(invoices)
	if err != nil {
		t.Fatalf("InvoiceRegisterXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Invoices"
	if got := cell(t, f, sheet, "A2"); got != "INV-0001" {
		t.Errorf("A2 = %q, want INV-0001", got)
	}
	if got := cell(t, f, sheet, "B2"); got != "Himalaya Traders" {
		t.Errorf("B2 = %q, want Himalaya Traders", got)
	}
	// Amount due = total - paid.
	if got := rawCell(t, f, sheet, "K2"); got != "630" {
		t.Errorf("K2 raw = %q, want 630", got)
	}
}

func TestBillRegisterXLSX(t *testing.T) {
	bills := []model.Bill{
		{
			Number:    "BILL-0001",
			Reference: "VND-778",
			Status:    model.BillReceived,
			Currency:  "NPR",
			BillDate:  time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Subtotal:  d("400"),
			TaxAmount: d("52"),
			Total:     d("452"),
			Vendor:    model.Vendor{Name: "Everest Supplies"},
		},
	}

	data, err := BillRegisterXLSX(bills)
	if err != nil {
		t.Fatalf("BillRegisterXLSX: %v", err)
	}
	f := openWorkbook(t, data)
	defer f.Close()

	const sheet = "Bills"
	if got := cell(t, f, sheet, "A2"); got != "BILL-0001" {
		t.Errorf("A2 = %q, want BILL-0001", got)
	}
	if got := cell(t, f, sheet, "C2"); got != "VND-778" {
		t.Errorf("C2 = %q, want VND-778", got)
	}
	if got := rawCell(t, f, sheet, "L2"); got != "452" {
		t.Errorf("L2 raw = %q, want 452", got)
	}
}
