package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill lifecycle states.
const (
	BillDraft    = "draft"
	BillReceived = "received"
	BillPartial  = "partial"
	BillPaid     = "paid"
	BillVoid     = "void"
)

// Bill represents a purchase document received from a vendor
type Bill struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TenantID   uint            `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_bill_number"`
	Number     string          `json:"number" gorm:"type:varchar(30);not null;uniqueIndex:idx_tenant_bill_number"`
	VendorID   uint            `json:"vendor_id" gorm:"index;not null"`
	Status     string          `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	Currency   string          `json:"currency" gorm:"type:varchar(3)"`
	BillDate   time.Time       `json:"bill_date" gorm:"index;not null"`
	DueDate    time.Time       `json:"due_date"`
	Reference  string          `json:"reference" gorm:"type:varchar(100)"` // vendor's own document number
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

	Lines  []BillLine `json:"lines,omitempty" gorm:"foreignKey:BillID"`
	Vendor Vendor     `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

// BillLine is one row of a bill
type BillLine struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	BillID      uint            `json:"bill_id" gorm:"index;not null"`
	ItemID      *uint           `json:"item_id,omitempty" gorm:"index"`
	Description string          `json:"description" gorm:"type:varchar(255)"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);default:1"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,4);default:0"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,4);default:0"`
}

// ComputeTotals recalculates line amounts, subtotal, tax and total from the
// lines and the bill's tax rate. Amounts are rounded to two places.
func (b *Bill) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range b.Lines {
		b.Lines[i].Amount = LineAmount(b.Lines[i].Quantity, b.Lines[i].UnitPrice)
		subtotal = subtotal.Add(b.Lines[i].Amount)
	}
	b.Subtotal = subtotal
	b.TaxAmount = TaxOn(subtotal, b.TaxRate)
	b.Total = subtotal.Add(b.TaxAmount)
}

// AmountDue returns the unpaid remainder of the bill total.
func (b *Bill) AmountDue() decimal.Decimal {
	return b.Total.Sub(b.AmountPaid)
}

// IsOverdue reports whether the bill is unpaid past its due date.
func (b *Bill) IsOverdue(now time.Time) bool {
	if b.Status != BillReceived && b.Status != BillPartial {
		return false
	}
	return b.DueDate.Before(now.Truncate(24 * time.Hour))
}

// Payable reports whether a payment may be recorded against the bill.
func (b *Bill) Payable() bool {
	return b.Status == BillReceived || b.Status == BillPartial
}
