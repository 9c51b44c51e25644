package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xadn01/finnepal/internal/model"
)

// Pagination totals must reflect the whole filtered set even though the page
// query itself ran with LIMIT and OFFSET.
func TestListItemsTotalOnLaterPages(t *testing.T) {
	db := openTestDB(t)
	for i := 1; i <= 5; i++ {
		item := model.Item{
			TenantID:  1,
			Code:      fmt.Sprintf("ITM-%03d", i),
			Name:      fmt.Sprintf("Item %d", i),
			Type:      model.ItemProduct,
			IsActive:  true,
			CreatedBy: 1,
			UpdatedBy: 1,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}

	c, rec := request(t, http.MethodGet, "/?page=3&limit=2", "")
	if err := ListItems(c); err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]any)
	if got := pagination["total"].(float64); got != 5 {
		t.Errorf("total = %v, want 5", got)
	}
	if got := pagination["total_pages"].(float64); got != 3 {
		t.Errorf("total_pages = %v, want 3", got)
	}
	if got := len(body["items"].([]any)); got != 1 {
		t.Errorf("page rows = %d, want 1", got)
	}
}

func TestListInvoicesTotalsOnLaterPages(t *testing.T) {
	db := openTestDB(t)
	for i := 1; i <= 3; i++ {
		invoice := model.Invoice{
			TenantID:   1,
			Number:     fmt.Sprintf("INV-2025-%03d", i),
			CustomerID: 1,
			Status:     model.InvoiceSent,
			IssueDate:  time.Date(2025, time.May, i, 0, 0, 0, 0, time.UTC),
			DueDate:    time.Date(2025, time.June, i, 0, 0, 0, 0, time.UTC),
			Total:      decimal.NewFromInt(100),
			CreatedBy:  1,
			UpdatedBy:  1,
		}
		if err := db.Create(&invoice).Error; err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	c, rec := request(t, http.MethodGet, "/?page=2&limit=2", "")
	if err := ListInvoices(c); err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]any)
	if got := pagination["total"].(float64); got != 3 {
		t.Errorf("total = %v, want 3", got)
	}

	// The outstanding totals cover all three invoices, not just the last page
	totals := body["totals"].(map[string]any)
	amount, err := decimal.NewFromString(totals["amount"].(string))
	if err != nil {
		t.Fatalf("parse totals.amount: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("totals.amount = %s, want 300", amount)
	}
	amountDue, err := decimal.NewFromString(totals["amount_due"].(string))
	if err != nil {
		t.Fatalf("parse totals.amount_due: %v", err)
	}
	if !amountDue.Equal(decimal.NewFromInt(300)) {
		t.Errorf("totals.amount_due = %s, want 300", amountDue)
	}
}
