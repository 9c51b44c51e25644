package model

import "testing"

func TestValidAccountType(t *testing.T) {
	for _, typ := range []AccountType{AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense} {
		if !ValidAccountType(typ) {
			t.Errorf("ValidAccountType(%q) = false, want true", typ)
		}
	}
	for _, bad := range []AccountType{"", "asset", "ASSETS", "CASH"} {
		if ValidAccountType(bad) {
			t.Errorf("ValidAccountType(%q) = true, want false", bad)
		}
	}
}

func TestDebitNormal(t *testing.T) {
	cases := map[AccountType]bool{
		AccountAsset:     true,
		AccountExpense:   true,
		AccountLiability: false,
		AccountEquity:    false,
		AccountRevenue:   false,
	}
	for typ, want := range cases {
		if got := typ.DebitNormal(); got != want {
			t.Errorf("%s.DebitNormal() = %v, want %v", typ, got, want)
		}
	}
}

func TestDefaultChartOfAccounts(t *testing.T) {
	accounts := DefaultChartOfAccounts(7, 42)
	if len(accounts) == 0 {
		t.Fatal("DefaultChartOfAccounts returned no accounts")
	}

	codes := make(map[string]bool)
	var hasCash, hasRevenue, hasExpense bool
	for _, a := range accounts {
		if a.TenantID != 7 {
			t.Errorf("account %s has tenant %d, want 7", a.Code, a.TenantID)
		}
		if a.CreatedBy != 42 {
			t.Errorf("account %s has created_by %d, want 42", a.Code, a.CreatedBy)
		}
		if codes[a.Code] {
			t.Errorf("duplicate account code %s in default chart", a.Code)
		}
		codes[a.Code] = true
		if !ValidAccountType(a.Type) {
			t.Errorf("account %s has invalid type %q", a.Code, a.Type)
		}
		if a.IsCash {
			hasCash = true
		}
		if a.Type == AccountRevenue {
			hasRevenue = true
		}
		if a.Type == AccountExpense {
			hasExpense = true
		}
	}
	if !hasCash {
		t.Error("default chart has no cash account")
	}
	if !hasRevenue {
		t.Error("default chart has no revenue account")
	}
	if !hasExpense {
		t.Error("default chart has no expense account")
	}
	for _, code := range []string{"1000", "1100", "2000", "3000", "4000", "5000"} {
		if !codes[code] {
			t.Errorf("default chart missing account %s", code)
		}
	}
}

func TestFormatDocumentNumber(t *testing.T) {
	if got := FormatDocumentNumber("INV-", 7); got != "INV-0007" {
		t.Errorf("FormatDocumentNumber(INV-, 7) = %q, want INV-0007", got)
	}
	if got := FormatDocumentNumber("JRN-", 12345); got != "JRN-12345" {
		t.Errorf("FormatDocumentNumber(JRN-, 12345) = %q, want JRN-12345", got)
	}
}
