package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestInvoiceComputeTotals(t *testing.T) {
	inv := Invoice{
		TaxRate: d("13"),
		Lines: []InvoiceLine{
			{Quantity: d("2"), UnitPrice: d("1500")},
			{Quantity: d("1.5"), UnitPrice: d("200")},
		},
	}
	inv.ComputeTotals()

	if !inv.Lines[0].Amount.Equal(d("3000")) {
		t.Errorf("line 0 amount = %s, want 3000", inv.Lines[0].Amount)
	}
	if !inv.Lines[1].Amount.Equal(d("300")) {
		t.Errorf("line 1 amount = %s, want 300", inv.Lines[1].Amount)
	}
	if !inv.Subtotal.Equal(d("3300")) {
		t.Errorf("subtotal = %s, want 3300", inv.Subtotal)
	}
	if !inv.TaxAmount.Equal(d("429")) {
		t.Errorf("tax = %s, want 429 (13%% of 3300)", inv.TaxAmount)
	}
	if !inv.Total.Equal(d("3729")) {
		t.Errorf("total = %s, want 3729", inv.Total)
	}
}

func TestInvoiceComputeTotals_Rounding(t *testing.T) {
	inv := Invoice{
		TaxRate: d("13"),
		Lines: []InvoiceLine{
			{Quantity: d("3"), UnitPrice: d("33.333")},
		},
	}
	inv.ComputeTotals()

	// 3 x 33.333 = 99.999 -> 100.00 after rounding
	if !inv.Lines[0].Amount.Equal(d("100")) {
		t.Errorf("line amount = %s, want 100.00", inv.Lines[0].Amount)
	}
	if !inv.TaxAmount.Equal(d("13")) {
		t.Errorf("tax = %s, want 13.00", inv.TaxAmount)
	}
}

func TestInvoiceComputeTotals_ZeroTax(t *testing.T) {
	inv := Invoice{
		Lines: []InvoiceLine{{Quantity: d("4"), UnitPrice: d("25")}},
	}
	inv.ComputeTotals()
	if !inv.TaxAmount.IsZero() {
		t.Errorf("tax = %s, want 0", inv.TaxAmount)
	}
	if !inv.Total.Equal(d("100")) {
		t.Errorf("total = %s, want 100", inv.Total)
	}
}

func TestInvoiceAmountDue(t *testing.T) {
	inv := Invoice{Total: d("500"), AmountPaid: d("120.50")}
	if due := inv.AmountDue(); !due.Equal(d("379.50")) {
		t.Errorf("AmountDue() = %s, want 379.50", due)
	}
}

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	past := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status string
		due    time.Time
		want   bool
	}{
		{"sent past due", InvoiceSent, past, true},
		{"partial past due", InvoicePartial, past, true},
		{"sent not yet due", InvoiceSent, future, false},
		{"draft past due", InvoiceDraft, past, false},
		{"paid past due", InvoicePaid, past, false},
		{"void past due", InvoiceVoid, past, false},
	}
	for _, tc := range cases {
		inv := Invoice{Status: tc.status, DueDate: tc.due}
		if got := inv.IsOverdue(now); got != tc.want {
			t.Errorf("%s: IsOverdue() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestInvoicePayable(t *testing.T) {
	for status, want := range map[string]bool{
		InvoiceDraft:   false,
		InvoiceSent:    true,
		InvoicePartial: true,
		InvoicePaid:    false,
		InvoiceVoid:    false,
	} {
		inv := Invoice{Status: status}
		if got := inv.Payable(); got != want {
			t.Errorf("Payable() with status %q = %v, want %v", status, got, want)
		}
	}
}

func TestBillComputeTotals(t *testing.T) {
	b := Bill{
		TaxRate: d("13"),
		Lines: []BillLine{
			{Quantity: d("10"), UnitPrice: d("45.50")},
		},
	}
	b.ComputeTotals()
	if !b.Subtotal.Equal(d("455")) {
		t.Errorf("subtotal = %s, want 455", b.Subtotal)
	}
	if !b.TaxAmount.Equal(d("59.15")) {
		t.Errorf("tax = %s, want 59.15", b.TaxAmount)
	}
	if !b.Total.Equal(d("514.15")) {
		t.Errorf("total = %s, want 514.15", b.Total)
	}
}
