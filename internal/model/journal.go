package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Journal entry lifecycle states.
const (
	JournalDraft  = "draft"
	JournalPosted = "posted"
	JournalVoid   = "void"
)

// JournalEntry is a bookkeeping record: a dated set of debit/credit lines.
// Entries are stored as submitted; the line totals are not required to
// balance before an entry can be saved or posted.
type JournalEntry struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_journal_number"`
	Number    string         `json:"number" gorm:"type:varchar(30);not null;uniqueIndex:idx_tenant_journal_number"`
	Date      time.Time      `json:"date" gorm:"index;not null"`
	Memo      string         `json:"memo" gorm:"type:text"`
	Reference string         `json:"reference" gorm:"type:varchar(100)"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	PostedAt  *time.Time     `json:"posted_at,omitempty"`
	PostedBy  *uint          `json:"posted_by,omitempty"`
	CreatedBy uint           `json:"created_by" gorm:"index"`
	UpdatedBy uint           `json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Lines []JournalLine `json:"lines,omitempty" gorm:"foreignKey:JournalEntryID"`
}

// JournalLine stores the debit or credit amount for one account.
type JournalLine struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	JournalEntryID uint            `json:"journal_entry_id" gorm:"index;not null"`
	AccountID      uint            `json:"account_id" gorm:"index;not null"`
	Description    string          `json:"description" gorm:"type:varchar(255)"`
	Debit          decimal.Decimal `json:"debit" gorm:"type:decimal(20,4);default:0"`
	Credit         decimal.Decimal `json:"credit" gorm:"type:decimal(20,4);default:0"`
}

// TotalDebit sums the debit side of all lines.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Ledger entry source types.
const (
	SourceJournal = "journal"
	SourceInvoice = "invoice"
	SourceBill    = "bill"
	SourcePayment = "payment"
)

// LedgerEntry is the flat per-account record the reports are built from.
// One row is written per journal line when an entry is posted; voiding the
// entry removes its rows again.
type LedgerEntry struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	TenantID       uint            `json:"tenant_id" gorm:"index;not null"`
	AccountID      uint            `json:"account_id" gorm:"index;not null"`
	Date           time.Time       `json:"date" gorm:"index;not null"`
	Description    string          `json:"description" gorm:"type:varchar(255)"`
	Debit          decimal.Decimal `json:"debit" gorm:"type:decimal(20,4);default:0"`
	Credit         decimal.Decimal `json:"credit" gorm:"type:decimal(20,4);default:0"`
	SourceType     string          `json:"source_type" gorm:"type:varchar(20);index"`
	SourceID       uint            `json:"source_id" gorm:"index"`
	JournalEntryID *uint           `json:"journal_entry_id,omitempty" gorm:"index"`
	CreatedAt      time.Time       `json:"created_at"`
}
