package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
)

// PDFContentType is the MIME type served with PDF downloads.
const PDFContentType = "application/pdf"

type documentLine struct {
	description string
	quantity    string
	unitPrice   string
	amount      string
}

// documentData is everything renderDocument needs; invoices and bills only
// differ in titles, meta fields and the party block.
type documentData struct {
	title      string
	company    model.TenantSettings
	meta       [][2]string
	partyLabel string
	party      []string
	lines      []documentLine
	totals     [][2]string // the last row is rendered bold
	notes      string
}

// InvoicePDF renders a printable invoice document.
func InvoicePDF(inv model.Invoice, settings model.TenantSettings) ([]byte, error) {
	currency := inv.Currency
	if currency == "" {
		currency = settings.BaseCurrency
	}

	data := documentData{
		title:   "INVOICE",
		company: settings,
		meta: [][2]string{
			{"Invoice No", inv.Number},
			{"Issue Date", inv.IssueDate.Format(report.DateLayout)},
			{"Due Date", inv.DueDate.Format(report.DateLayout)},
			{"Status", inv.Status},
		},
		partyLabel: "Bill To",
		party:      partyLines(inv.Customer.Name, inv.Customer.Address, inv.Customer.City, inv.Customer.Country, inv.Customer.TaxID),
		notes:      inv.Notes,
	}
	for _, l := range inv.Lines {
		data.lines = append(data.lines, documentLine{
			description: l.Description,
			quantity:    l.Quantity.String(),
			unitPrice:   FormatAmount(l.UnitPrice, currency),
			amount:      FormatAmount(l.Amount, currency),
		})
	}
	data.totals = [][2]string{
		{"Subtotal", FormatAmount(inv.Subtotal, currency)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.String()), FormatAmount(inv.TaxAmount, currency)},
		{"Total", FormatAmount(inv.Total, currency)},
		{"Paid", FormatAmount(inv.AmountPaid, currency)},
		{"Amount Due", FormatAmount(inv.AmountDue(), currency)},
	}

	return renderDocument(data)
}

// BillPDF renders a printable purchase bill document.
func BillPDF(b model.Bill, settings model.TenantSettings) ([]byte, error) {
	currency := b.Currency
	if currency == "" {
		currency = settings.BaseCurrency
	}

	data := documentData{
		title:   "PURCHASE BILL",
		company: settings,
		meta: [][2]string{
			{"Bill No", b.Number},
			{"Vendor Ref", b.Reference},
			{"Bill Date", b.BillDate.Format(report.DateLayout)},
			{"Due Date", b.DueDate.Format(report.DateLayout)},
			{"Status", b.Status},
		},
		partyLabel: "Vendor",
		party:      partyLines(b.Vendor.Name, b.Vendor.Address, b.Vendor.City, b.Vendor.Country, b.Vendor.TaxID),
		notes:      b.Notes,
	}
	for _, l := range b.Lines {
		data.lines = append(data.lines, documentLine{
			description: l.Description,
			quantity:    l.Quantity.String(),
			unitPrice:   FormatAmount(l.UnitPrice, currency),
			amount:      FormatAmount(l.Amount, currency),
		})
	}
	data.totals = [][2]string{
		{"Subtotal", FormatAmount(b.Subtotal, currency)},
		{fmt.Sprintf("Tax (%s%%)", b.TaxRate.String()), FormatAmount(b.TaxAmount, currency)},
		{"Total", FormatAmount(b.Total, currency)},
		{"Paid", FormatAmount(b.AmountPaid, currency)},
		{"Amount Due", FormatAmount(b.AmountDue(), currency)},
	}

	return renderDocument(data)
}

func renderDocument(data documentData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Company header with the document title on the right.
	name := data.company.LegalName
	if name == "" {
		name = "Unregistered Business"
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(120, 8, name, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(60, 8, data.title, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	for _, line := range companyLines(data.company) {
		pdf.CellFormat(0, 4.5, line, "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(5)

	// Document meta
	for _, m := range data.meta {
		if m[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 5.5, m[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 5.5, m[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Party block
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5.5, data.partyLabel, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range data.party {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Line table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range data.lines {
		pdf.CellFormat(90, 7, line.description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, line.quantity, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, line.unitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, line.amount, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals, right aligned; the last row carries the emphasis.
	for i, t := range data.totals {
		if i == len(data.totals)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, t[1], "", 1, "R", false, 0, "")
	}

	if data.notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 5.5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, data.notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func companyLines(s model.TenantSettings) []string {
	var lines []string
	if s.Address != "" {
		lines = append(lines, s.Address)
	}
	if s.City != "" {
		lines = append(lines, s.City)
	}
	if s.Phone != "" {
		lines = append(lines, "Phone: "+s.Phone)
	}
	if s.TaxID != "" {
		lines = append(lines, "PAN/VAT: "+s.TaxID)
	}
	return lines
}

func partyLines(name, address, city, country, taxID string) []string {
	lines := []string{name}
	if address != "" {
		lines = append(lines, address)
	}
	switch {
	case city != "" && country != "":
		lines = append(lines, city+", "+country)
	case city != "":
		lines = append(lines, city)
	case country != "":
		lines = append(lines, country)
	}
	if taxID != "" {
		lines = append(lines, "PAN/VAT: "+taxID)
	}
	return lines
}
