package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice lifecycle states.
const (
	InvoiceDraft   = "draft"
	InvoiceSent    = "sent"
	InvoicePartial = "partial"
	InvoicePaid    = "paid"
	InvoiceVoid    = "void"
)

// Invoice represents a sales document issued to a customer
type Invoice struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TenantID   uint            `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_invoice_number"`
	Number     string          `json:"number" gorm:"type:varchar(30);not null;uniqueIndex:idx_tenant_invoice_number"`
	CustomerID uint            `json:"customer_id" gorm:"index;not null"`
	Status     string          `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	Currency   string          `json:"currency" gorm:"type:varchar(3)"`
	IssueDate  time.Time       `json:"issue_date" gorm:"index;not null"`
	DueDate    time.Time       `json:"due_date"`
	Notes      string          `json:"notes" gorm:"type:text"`
	Subtotal   decimal.Decimal `json:"subtotal" gorm:"type:decimal(20,4);default:0"`
	TaxRate    decimal.Decimal `json:"tax_rate" gorm:"type:decimal(20,4);default:0"` // percent
	TaxAmount  decimal.Decimal `json:"tax_amount" gorm:"type:decimal(20,4);default:0"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(20,4);default:0"`
	AmountPaid decimal.Decimal `json:"amount_paid" gorm:"type:decimal(20,4);default:0"`
	CreatedBy  uint            `json:"created_by" gorm:"index"`
	UpdatedBy  uint            `json:"updated_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`

	Lines    []InvoiceLine `json:"lines,omitempty" gorm:"foreignKey:InvoiceID"`
	Customer Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// InvoiceLine is one row of an invoice
type InvoiceLine struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"invoice_id" gorm:"index;not null"`
	ItemID      *uint           `json:"item_id,omitempty" gorm:"index"`
	Description string          `json:"description" gorm:"type:varchar(255)"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);default:1"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,4);default:0"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,4);default:0"`
}

// ComputeTotals recalculates line amounts, subtotal, tax and total from the
// lines and the invoice's tax rate. Amounts are rounded to two places.
func (inv *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range inv.Lines {
		inv.Lines[i].Amount = LineAmount(inv.Lines[i].Quantity, inv.Lines[i].UnitPrice)
		subtotal = subtotal.Add(inv.Lines[i].Amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = TaxOn(subtotal, inv.TaxRate)
	inv.Total = subtotal.Add(inv.TaxAmount)
}

// AmountDue returns the unpaid remainder of the invoice total.
func (inv *Invoice) AmountDue() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

// IsOverdue reports whether the invoice is unpaid past its due date.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != InvoiceSent && inv.Status != InvoicePartial {
		return false
	}
	return inv.DueDate.Before(now.Truncate(24 * time.Hour))
}

// Payable reports whether a payment may be recorded against the invoice.
func (inv *Invoice) Payable() bool {
	return inv.Status == InvoiceSent || inv.Status == InvoicePartial
}
