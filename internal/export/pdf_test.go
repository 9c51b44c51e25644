package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xadn01/finnepal/internal/model"
)

func testSettings() model.TenantSettings {
	return model.TenantSettings{
		BaseCurrency: "NPR",
		LegalName:    "Kathmandu Trading Pvt. Ltd.",
		Address:      "Durbar Marg 12",
		City:         "Kathmandu",
		Phone:        "+977-1-4411223",
		TaxID:        "600123456",
	}
}

func TestInvoicePDF(t *testing.T) {
	inv := model.Invoice{
		Number:    "INV-0042",
		Status:    model.InvoiceSent,
		Currency:  "NPR",
		IssueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:   d("13"),
		Notes:     "Payment within 30 days.",
		Customer:  model.Customer{Name: "Himalaya Traders", City: "Pokhara", Country: "Nepal"},
		Lines: []model.InvoiceLine{
			{Description: "Consulting", Quantity: d("10"), UnitPrice: d("150")},
			{Description: "Support retainer", Quantity: d("1"), UnitPrice: d("500")},
		},
	}
	inv.ComputeTotals()

	data, err := InvoicePDF(inv, testSettings())
	if err != nil {
		t.Fatalf("InvoicePDF: %v", err)
	}
	if len(data) < 1000 {
		t.Fatalf("PDF suspiciously small: %d bytes", len(data))
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:8])
	}
}

func TestInvoicePDF_NoLinesNoNotes(t *testing.T) {
	inv := model.Invoice{
		Number:    "INV-0001",
		Status:    model.InvoiceDraft,
		IssueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Customer:  model.Customer{Name: "Walk-in"},
	}
	data, err := InvoicePDF(inv, model.TenantSettings{BaseCurrency: "NPR"})
	if err != nil {
		t.Fatalf("InvoicePDF on empty invoice: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestBillPDF(t *testing.T) {
	b := model.Bill{
		Number:    "BILL-0007",
		Reference: "VND-778",
		Status:    model.BillReceived,
		Currency:  "NPR",
		BillDate:  time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		TaxRate:   d("13"),
		Vendor:    model.Vendor{Name: "Everest Supplies", City: "Lalitpur"},
		Lines: []model.BillLine{
			{Description: "Paper stock", Quantity: d("40"), UnitPrice: d("12.5")},
		},
	}
	b.ComputeTotals()

	data, err := BillPDF(b, testSettings())
	if err != nil {
		t.Fatalf("BillPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}
