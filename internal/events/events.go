// Package events publishes accounting domain events to Kafka so downstream
// consumers (reporting pipelines, webhooks, audit trails) can react to what
// happens in the ledger. Publishing is fire-and-forget: a broker outage never
// fails the originating request.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic suffixes. The full topic name is "<prefix>.<suffix>" where the
// prefix comes from KAFKA_TOPIC_PREFIX.
const (
	TopicJournal   = "journal"
	TopicSales     = "sales"
	TopicPurchases = "purchases"
)

// JournalEvent is emitted when a journal entry is posted to or removed from
// the ledger.
type JournalEvent struct {
	Event       string          `json:"event"` // "journal.posted" or "journal.voided"
	TenantID    uint            `json:"tenant_id"`
	EntryID     uint            `json:"entry_id"`
	Number      string          `json:"number"`
	Date        string          `json:"date"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// InvoiceEvent is emitted on invoice lifecycle transitions and payments.
type InvoiceEvent struct {
	Event      string          `json:"event"` // "invoice.sent", "invoice.paid", "invoice.voided", "invoice.payment"
	TenantID   uint            `json:"tenant_id"`
	InvoiceID  uint            `json:"invoice_id"`
	Number     string          `json:"number"`
	CustomerID uint            `json:"customer_id"`
	Status     string          `json:"status"`
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// BillEvent is emitted on purchase bill lifecycle transitions and payments.
type BillEvent struct {
	Event      string          `json:"event"` // "bill.received", "bill.paid", "bill.voided", "bill.payment"
	TenantID   uint            `json:"tenant_id"`
	BillID     uint            `json:"bill_id"`
	Number     string          `json:"number"`
	VendorID   uint            `json:"vendor_id"`
	Status     string          `json:"status"`
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	OccurredAt time.Time       `json:"occurred_at"`
}
