package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type served with spreadsheet downloads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const moneyFormat = "#,##0.00"

// workbook wraps an excelize file with the handful of styles every export
// sheet uses.
type workbook struct {
	file       *excelize.File
	sheet      string
	boldStyle  int
	moneyStyle int
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	numFmt := moneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	return &workbook{file: f, sheet: sheet, boldStyle: bold, moneyStyle: moneyStyle}, nil
}

// header writes column titles on row 1, freezes it and sets column widths.
func (w *workbook) header(titles []string, widths []float64) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, title); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.sheet, "A1", last, w.boldStyle); err != nil {
		return err
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(w.sheet, col, col, width); err != nil {
			return err
		}
	}
	return w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *workbook) set(col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.file.SetCellValue(w.sheet, cell, value)
}

// setMoney writes a decimal as a number cell with the money format applied.
func (w *workbook) setMoney(col, row int, value decimal.Decimal) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	v, _ := value.Round(2).Float64()
	if err := w.file.SetCellValue(w.sheet, cell, v); err != nil {
		return err
	}
	return w.file.SetCellStyle(w.sheet, cell, cell, w.moneyStyle)
}

func (w *workbook) bold(fromCol, toCol, row int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(w.sheet, from, to, w.boldStyle)
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TrialBalanceXLSX renders a trial balance as a spreadsheet.
func TrialBalanceXLSX(tb report.TrialBalance) ([]byte, error) {
	w, err := newWorkbook("Trial Balance")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Code", "Account", "Type", "Debit", "Credit"},
		[]float64{10, 32, 12, 14, 14},
	); err != nil {
		return nil, err
	}

	row := 2
	for _, r := range tb.Rows {
		_ = w.set(1, row, r.AccountCode)
		_ = w.set(2, row, r.AccountName)
		_ = w.set(3, row, string(r.AccountType))
		if err := w.setMoney(4, row, r.Debit); err != nil {
			return nil, err
		}
		if err := w.setMoney(5, row, r.Credit); err != nil {
			return nil, err
		}
		row++
	}

	_ = w.set(2, row, "Total")
	_ = w.setMoney(4, row, tb.TotalDebit)
	_ = w.setMoney(5, row, tb.TotalCredit)
	if err := w.bold(1, 5, row); err != nil {
		return nil, err
	}

	if tb.From != "" || tb.To != "" {
		_ = w.set(1, row+2, fmt.Sprintf("Period: %s to %s", orOpen(tb.From), orOpen(tb.To)))
	}

	return w.bytes()
}

// ProfitLossXLSX renders an income statement as a spreadsheet.
func ProfitLossXLSX(pl report.ProfitLoss) ([]byte, error) {
	w, err := newWorkbook("Profit and Loss")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Code", "Account", "Amount"},
		[]float64{10, 36, 16},
	); err != nil {
		return nil, err
	}

	row := 2
	row, err = w.statementSection("Revenue", pl.Revenue, "Total Revenue", pl.TotalRevenue, row)
	if err != nil {
		return nil, err
	}
	row++
	row, err = w.statementSection("Expenses", pl.Expenses, "Total Expenses", pl.TotalExpenses, row)
	if err != nil {
		return nil, err
	}
	row++

	_ = w.set(2, row, "Net Profit")
	_ = w.setMoney(3, row, pl.NetProfit)
	if err := w.bold(1, 3, row); err != nil {
		return nil, err
	}

	if pl.From != "" || pl.To != "" {
		_ = w.set(1, row+2, fmt.Sprintf("Period: %s to %s", orOpen(pl.From), orOpen(pl.To)))
	}

	return w.bytes()
}

// BalanceSheetXLSX renders a balance sheet as a spreadsheet.
func BalanceSheetXLSX(bs report.BalanceSheet) ([]byte, error) {
	w, err := newWorkbook("Balance Sheet")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Code", "Account", "Amount"},
		[]float64{10, 36, 16},
	); err != nil {
		return nil, err
	}

	row := 2
	row, err = w.statementSection("Assets", bs.Assets, "Total Assets", bs.TotalAssets, row)
	if err != nil {
		return nil, err
	}
	row++
	row, err = w.statementSection("Liabilities", bs.Liabilities, "Total Liabilities", bs.TotalLiabilities, row)
	if err != nil {
		return nil, err
	}
	row++
	row, err = w.statementSection("Equity", bs.Equity, "Total Equity", bs.TotalEquity, row)
	if err != nil {
		return nil, err
	}
	row++

	_ = w.set(2, row, "Liabilities and Equity")
	_ = w.setMoney(3, row, bs.TotalLiabilitiesAndEquity)
	if err := w.bold(1, 3, row); err != nil {
		return nil, err
	}

	if bs.AsOf != "" {
		_ = w.set(1, row+2, "As of: "+bs.AsOf)
	}

	return w.bytes()
}

// statementSection writes a bold section title, its lines and a bold total
// row, returning the next free row.
func (w *workbook) statementSection(title string, lines []report.StatementLine, totalLabel string, total decimal.Decimal, row int) (int, error) {
	_ = w.set(1, row, title)
	if err := w.bold(1, 3, row); err != nil {
		return row, err
	}
	row++
	for _, line := range lines {
		_ = w.set(1, row, line.AccountCode)
		_ = w.set(2, row, line.AccountName)
		if err := w.setMoney(3, row, line.Amount); err != nil {
			return row, err
		}
		row++
	}
	_ = w.set(2, row, totalLabel)
	if err := w.setMoney(3, row, total); err != nil {
		return row, err
	}
	if err := w.bold(1, 3, row); err != nil {
		return row, err
	}
	return row + 1, nil
}

// AccountLedgerXLSX renders an account statement as a spreadsheet.
func AccountLedgerXLSX(l report.AccountLedger) ([]byte, error) {
	w, err := newWorkbook("Account Ledger")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Date", "Description", "Source", "Debit", "Credit", "Balance"},
		[]float64{12, 40, 12, 14, 14, 14},
	); err != nil {
		return nil, err
	}

	row := 2
	_ = w.set(2, row, fmt.Sprintf("%s %s, opening balance", l.AccountCode, l.AccountName))
	_ = w.setMoney(6, row, l.OpeningBalance)
	if err := w.bold(1, 6, row); err != nil {
		return nil, err
	}
	row++

	for _, line := range l.Lines {
		_ = w.set(1, row, line.Date)
		_ = w.set(2, row, line.Description)
		_ = w.set(3, row, line.SourceType)
		if err := w.setMoney(4, row, line.Debit); err != nil {
			return nil, err
		}
		if err := w.setMoney(5, row, line.Credit); err != nil {
			return nil, err
		}
		if err := w.setMoney(6, row, line.Balance); err != nil {
			return nil, err
		}
		row++
	}

	_ = w.set(2, row, "Closing balance")
	_ = w.setMoney(4, row, l.TotalDebit)
	_ = w.setMoney(5, row, l.TotalCredit)
	_ = w.setMoney(6, row, l.ClosingBalance)
	if err := w.bold(1, 6, row); err != nil {
		return nil, err
	}

	return w.bytes()
}

// InvoiceRegisterXLSX renders a list of invoices as a spreadsheet.
func InvoiceRegisterXLSX(invoices []model.Invoice) ([]byte, error) {
	w, err := newWorkbook("Invoices")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Number", "Customer", "Status", "Issue Date", "Due Date", "Currency", "Subtotal", "Tax", "Total", "Paid", "Due"},
		[]float64{14, 28, 10, 12, 12, 10, 13, 11, 13, 13, 13},
	); err != nil {
		return nil, err
	}

	for i, inv := range invoices {
		row := i + 2
		_ = w.set(1, row, inv.Number)
		_ = w.set(2, row, inv.Customer.Name)
		_ = w.set(3, row, inv.Status)
		_ = w.set(4, row, inv.IssueDate.Format(report.DateLayout))
		_ = w.set(5, row, inv.DueDate.Format(report.DateLayout))
		_ = w.set(6, row, inv.Currency)
		_ = w.setMoney(7, row, inv.Subtotal)
		_ = w.setMoney(8, row, inv.TaxAmount)
		_ = w.setMoney(9, row, inv.Total)
		_ = w.setMoney(10, row, inv.AmountPaid)
		if err := w.setMoney(11, row, inv.AmountDue()); err != nil {
			return nil, err
		}
	}

	return w.bytes()
}

// BillRegisterXLSX renders a list of purchase bills as a spreadsheet.
func BillRegisterXLSX(bills []model.Bill) ([]byte, error) {
	w, err := newWorkbook("Bills")
	if err != nil {
		return nil, err
	}
	if err := w.header(
		[]string{"Number", "Vendor", "Reference", "Status", "Bill Date", "Due Date", "Currency", "Subtotal", "Tax", "Total", "Paid", "Due"},
		[]float64{14, 28, 14, 10, 12, 12, 10, 13, 11, 13, 13, 13},
	); err != nil {
		return nil, err
	}

	for i, b := range bills {
		row := i + 2
		_ = w.set(1, row, b.Number)
		_ = w.set(2, row, b.Vendor.Name)
		_ = w.set(3, row, b.Reference)
		_ = w.set(4, row, b.Status)
		_ = w.set(5, row, b.BillDate.Format(report.DateLayout))
		_ = w.set(6, row, b.DueDate.Format(report.DateLayout))
		_ = w.set(7, row, b.Currency)
		_ = w.setMoney(8, row, b.Subtotal)
		_ = w.setMoney(9, row, b.TaxAmount)
		_ = w.setMoney(10, row, b.Total)
		_ = w.setMoney(11, row, b.AmountPaid)
		if err := w.setMoney(12, row, b.AmountDue()); err != nil {
			return nil, err
		}
	}

	return w.bytes()
}

func orOpen(date string) string {
	if date == "" {
		return "open"
	}
	return date
}
