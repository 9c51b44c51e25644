package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TenantSettings holds the per-tenant bookkeeping preferences and the
// business profile printed on generated documents. Exactly one row exists
// per tenant; it is created together with the tenant.
type TenantSettings struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	TenantID uint `json:"tenant_id" gorm:"uniqueIndex;not null"`

	// Bookkeeping preferences
	BaseCurrency         string          `json:"base_currency" gorm:"type:varchar(3);default:'NPR'"`
	FiscalYearStartMonth int             `json:"fiscal_year_start_month" gorm:"default:7"`
	DefaultTaxRate       decimal.Decimal `json:"default_tax_rate" gorm:"type:decimal(20,4);default:13"`

	// Document numbering
	InvoicePrefix     string `json:"invoice_prefix" gorm:"type:varchar(10);default:'INV-'"`
	NextInvoiceNumber int    `json:"next_invoice_number" gorm:"default:1"`
	BillPrefix        string `json:"bill_prefix" gorm:"type:varchar(10);default:'BILL-'"`
	NextBillNumber    int    `json:"next_bill_number" gorm:"default:1"`
	JournalPrefix     string `json:"journal_prefix" gorm:"type:varchar(10);default:'JRN-'"`
	NextJournalNumber int    `json:"next_journal_number" gorm:"default:1"`

	// Business profile shown on invoices and bills
	LegalName string `json:"legal_name" gorm:"type:varchar(150)"`
	Address   string `json:"address" gorm:"type:text"`
	City      string `json:"city" gorm:"type:varchar(50)"`
	Phone     string `json:"phone" gorm:"type:varchar(20)"`
	TaxID     string `json:"tax_id" gorm:"type:varchar(50)"` // PAN/VAT registration number

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings row seeded when a tenant is created.
func DefaultSettings(tenantID uint) TenantSettings {
	return TenantSettings{
		TenantID:             tenantID,
		BaseCurrency:         "NPR",
		FiscalYearStartMonth: 7,
		DefaultTaxRate:       decimal.NewFromInt(13),
		InvoicePrefix:        "INV-",
		NextInvoiceNumber:    1,
		BillPrefix:           "BILL-",
		NextBillNumber:       1,
		JournalPrefix:        "JRN-",
		NextJournalNumber:    1,
	}
}

// FormatDocumentNumber renders a document number from a prefix and sequence,
// e.g. ("INV-", 42) -> "INV-0042".
func FormatDocumentNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
