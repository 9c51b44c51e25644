// Package report builds financial statements from the flat ledger. Every
// builder is a pure function over accounts and ledger entries so the
// handlers stay thin: they query rows for the tenant and hand them over.
package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xadn01/finnepal/internal/model"
)

// DateLayout is the wire format for report dates.
const DateLayout = "2006-01-02"

// formatDate returns t in the report date layout, or "" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// inRange reports whether d falls within [from, to]. A zero bound is open.
func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// normalBalance signs a debit/credit pair by the account type's normal side,
// so a positive number always means the account grew.
func normalBalance(t model.AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// accountIndex maps account IDs to their chart entries.
func accountIndex(accounts []model.Account) map[uint]model.Account {
	idx := make(map[uint]model.Account, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a
	}
	return idx
}
