package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document types a payment or attachment can belong to.
const (
	DocumentInvoice = "invoice"
	DocumentBill    = "bill"
	DocumentJournal = "journal_entry"
)

// Payment records money received against an invoice or paid against a bill.
type Payment struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	TenantID     uint            `json:"tenant_id" gorm:"index;not null"`
	DocumentType string          `json:"document_type" gorm:"type:varchar(20);not null;index:idx_payment_document"`
	DocumentID   uint            `json:"document_id" gorm:"not null;index:idx_payment_document"`
	Date         time.Time       `json:"date" gorm:"index;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,4);not null"`
	Method       string          `json:"method" gorm:"type:varchar(30)"` // cash, bank_transfer, cheque, ...
	Notes        string          `json:"notes" gorm:"type:text"`
	CreatedBy    uint            `json:"created_by" gorm:"index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
}
