package model

import (
	"time"

	"gorm.io/gorm"
)

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountLiability AccountType = "LIABILITY"
	AccountEquity    AccountType = "EQUITY"
	AccountRevenue   AccountType = "REVENUE"
	AccountExpense   AccountType = "EXPENSE"
)

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// DebitNormal reports whether accounts of this type increase with debits.
// Asset and expense accounts are debit-normal; liability, equity and
// revenue accounts are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == AccountAsset || t == AccountExpense
}

// Account represents one entry in a tenant's chart of accounts
type Account struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_account_code"`
	Code        string         `json:"code" gorm:"type:varchar(20);not null;uniqueIndex:idx_tenant_account_code"` // Unique per tenant
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Type        AccountType    `json:"type" gorm:"type:varchar(20);not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	IsCash      bool           `json:"is_cash" gorm:"default:false"` // counted in the dashboard cash position
	IsActive    bool           `json:"is_active"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	UpdatedBy   uint           `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// DefaultChartOfAccounts returns the starter chart seeded for a new tenant.
func DefaultChartOfAccounts(tenantID, createdBy uint) []Account {
	type seed struct {
		code   string
		name   string
		typ    AccountType
		isCash bool
	}
	seeds := []seed{
		{"1000", "Cash", AccountAsset, true},
		{"1010", "Bank", AccountAsset, true},
		{"1100", "Accounts Receivable", AccountAsset, false},
		{"1200", "Inventory", AccountAsset, false},
		{"1500", "Fixed Assets", AccountAsset, false},
		{"2000", "Accounts Payable", AccountLiability, false},
		{"2100", "VAT Payable", AccountLiability, false},
		{"2500", "Loans Payable", AccountLiability, false},
		{"3000", "Owner's Equity", AccountEquity, false},
		{"3900", "Retained Earnings", AccountEquity, false},
		{"4000", "Sales Revenue", AccountRevenue, false},
		{"4900", "Other Income", AccountRevenue, false},
		{"5000", "Cost of Goods Sold", AccountExpense, false},
		{"6000", "Salaries and Wages", AccountExpense, false},
		{"6100", "Rent", AccountExpense, false},
		{"6200", "Utilities", AccountExpense, false},
		{"6300", "Office Supplies", AccountExpense, false},
		{"6900", "Miscellaneous Expense", AccountExpense, false},
	}

	accounts := make([]Account, 0, len(seeds))
	for _, s := range seeds {
		accounts = append(accounts, Account{
			TenantID:  tenantID,
			Code:      s.code,
			Name:      s.name,
			Type:      s.typ,
			IsCash:    s.isCash,
			IsActive:  true,
			CreatedBy: createdBy,
			UpdatedBy: createdBy,
		})
	}
	return accounts
}
