package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/model"
)

func seedInvoice(t *testing.T, db *gorm.DB, status string, total int64) model.Invoice {
	t.Helper()

	invoice := model.Invoice{
		TenantID:   1,
		Number:     fmt.Sprintf("INV-%s-%d", status, total),
		CustomerID: 1,
		Status:     status,
		IssueDate:  time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
		Total:      decimal.NewFromInt(total),
		CreatedBy:  1,
		UpdatedBy:  1,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}

func seedBill(t *testing.T, db *gorm.DB, status string, total int64) model.Bill {
	t.Helper()

	bill := model.Bill{
		TenantID:  1,
		Number:    fmt.Sprintf("BILL-%s-%d", status, total),
		VendorID:  1,
		Status:    status,
		BillDate:  time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
		Total:     decimal.NewFromInt(total),
		CreatedBy: 1,
		UpdatedBy: 1,
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("seed bill: %v", err)
	}
	return bill
}

func payInvoice(t *testing.T, id uint, body string) *http.Response {
	t.Helper()

	c, rec := request(t, http.MethodPost, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(id))
	if err := RecordInvoicePayment(c); err != nil {
		t.Fatalf("RecordInvoicePayment: %v", err)
	}
	return rec.Result()
}

func payBill(t *testing.T, id uint, body string) *http.Response {
	t.Helper()

	c, rec := request(t, http.MethodPost, "/", body)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(id))
	if err := RecordBillPayment(c); err != nil {
		t.Fatalf("RecordBillPayment: %v", err)
	}
	return rec.Result()
}

func TestRecordInvoicePaymentOverpaymentRejected(t *testing.T) {
	db := openTestDB(t)
	invoice := seedInvoice(t, db, model.InvoiceSent, 1000)

	resp := payInvoice(t, invoice.ID, `{"amount": "1500", "date": "2025-05-10"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var reloaded model.Invoice
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if reloaded.Status != model.InvoiceSent || !reloaded.AmountPaid.IsZero() {
		t.Errorf("invoice mutated by rejected payment: status=%s amount_paid=%s",
			reloaded.Status, reloaded.AmountPaid)
	}

	var payments int64
	db.Model(&model.Payment{}).Where("document_id = ?", invoice.ID).Count(&payments)
	if payments != 0 {
		t.Errorf("payments recorded = %d, want 0", payments)
	}
}

func TestRecordInvoicePaymentStatusGate(t *testing.T) {
	db := openTestDB(t)

	for _, status := range []string{model.InvoiceDraft, model.InvoiceVoid, model.InvoicePaid} {
		invoice := seedInvoice(t, db, status, 500)
		resp := payInvoice(t, invoice.ID, `{"amount": "100", "date": "2025-05-10"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("payment on %s invoice: status = %d, want %d",
				status, resp.StatusCode, http.StatusConflict)
		}
	}
}

func TestRecordInvoicePaymentSettlesInStages(t *testing.T) {
	db := openTestDB(t)
	invoice := seedInvoice(t, db, model.InvoiceSent, 1000)

	resp := payInvoice(t, invoice.ID, `{"amount": "400", "date": "2025-05-10", "method": "bank"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first payment: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var reloaded model.Invoice
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if reloaded.Status != model.InvoicePartial {
		t.Fatalf("status after partial payment = %s, want %s", reloaded.Status, model.InvoicePartial)
	}
	if !reloaded.AmountDue().Equal(decimal.NewFromInt(600)) {
		t.Fatalf("amount due = %s, want 600", reloaded.AmountDue())
	}

	resp = payInvoice(t, invoice.ID, `{"amount": "600", "date": "2025-05-20", "method": "bank"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second payment: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if reloaded.Status != model.InvoicePaid {
		t.Errorf("status after settling = %s, want %s", reloaded.Status, model.InvoicePaid)
	}
	if !reloaded.AmountPaid.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("amount paid = %s, want 1000", reloaded.AmountPaid)
	}

	var payments int64
	db.Model(&model.Payment{}).
		Where("document_type = ? AND document_id = ?", model.DocumentInvoice, invoice.ID).
		Count(&payments)
	if payments != 2 {
		t.Errorf("payments recorded = %d, want 2", payments)
	}

	// A settled invoice accepts no further payments
	resp = payInvoice(t, invoice.ID, `{"amount": "1", "date": "2025-05-21"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("payment on paid invoice: status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestRecordBillPaymentStatusGate(t *testing.T) {
	db := openTestDB(t)
	bill := seedBill(t, db, model.BillDraft, 750)

	resp := payBill(t, bill.ID, `{"amount": "100", "date": "2025-05-10"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("payment on draft bill: status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestRecordBillPaymentOverpaymentAndSettle(t *testing.T) {
	db := openTestDB(t)
	bill := seedBill(t, db, model.BillReceived, 750)

	resp := payBill(t, bill.ID, `{"amount": "751", "date": "2025-05-10"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("overpayment: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp = payBill(t, bill.ID, `{"amount": "750", "date": "2025-05-10", "method": "cash"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("full payment: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var reloaded model.Bill
	if err := db.First(&reloaded, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if reloaded.Status != model.BillPaid {
		t.Errorf("status after settling = %s, want %s", reloaded.Status, model.BillPaid)
	}
	if !reloaded.AmountDue().IsZero() {
		t.Errorf("amount due = %s, want 0", reloaded.AmountDue())
	}
}
