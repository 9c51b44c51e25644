package model

import "testing"

func TestJournalEntryTotals(t *testing.T) {
	entry := JournalEntry{
		Lines: []JournalLine{
			{Debit: d("1000"), Credit: d("0")},
			{Debit: d("0"), Credit: d("600")},
			{Debit: d("0"), Credit: d("250.25")},
		},
	}
	if got := entry.TotalDebit(); !got.Equal(d("1000")) {
		t.Errorf("TotalDebit() = %s, want 1000", got)
	}
	if got := entry.TotalCredit(); !got.Equal(d("850.25")) {
		t.Errorf("TotalCredit() = %s, want 850.25", got)
	}
}

func TestJournalEntryTotals_Empty(t *testing.T) {
	var entry JournalEntry
	if got := entry.TotalDebit(); !got.IsZero() {
		t.Errorf("TotalDebit() on empty entry = %s, want 0", got)
	}
	if got := entry.TotalCredit(); !got.IsZero() {
		t.Errorf("TotalCredit() on empty entry = %s, want 0", got)
	}
}

func TestLineAmount(t *testing.T) {
	cases := []struct {
		qty, price, want string
	}{
		{"1", "100", "100"},
		{"2.5", "40", "100"},
		{"3", "33.333", "100"},
		{"0", "999", "0"},
	}
	for _, tc := range cases {
		got := LineAmount(d(tc.qty), d(tc.price))
		if !got.Equal(d(tc.want)) {
			t.Errorf("LineAmount(%s, %s) = %s, want %s", tc.qty, tc.price, got, tc.want)
		}
	}
}

func TestTaxOn(t *testing.T) {
	if got := TaxOn(d("1000"), d("13")); !got.Equal(d("130")) {
		t.Errorf("TaxOn(1000, 13) = %s, want 130", got)
	}
	if got := TaxOn(d("99.99"), d("13")); !got.Equal(d("13")) {
		t.Errorf("TaxOn(99.99, 13) = %s, want 13.00", got)
	}
	if got := TaxOn(d("1000"), d("0")); !got.IsZero() {
		t.Errorf("TaxOn(1000, 0) = %s, want 0", got)
	}
}
