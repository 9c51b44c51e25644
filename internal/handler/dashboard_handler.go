package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// agingRow carries an open-document aggregate out of a single scan
type agingRow struct {
	Count  int64           `gorm:"column:cnt"`
	Amount decimal.Decimal `gorm:"column:amount"`
}

// loadLedger fetches the tenant's accounts and ledger entries for the report
// builders
func loadLedger(tenantID uint) ([]model.Account, []model.LedgerEntry, error) {
	var accounts []model.Account
	if err := database.GetDB().Where("tenant_id = ?", tenantID).Find(&accounts).Error; err != nil {
		return nil, nil, err
	}
	var entries []model.LedgerEntry
	if err := database.GetDB().Where("tenant_id = ?", tenantID).Order("date asc, id asc").Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	return accounts, entries, nil
}

// openDocuments sums the outstanding amount of payable documents, optionally
// restricted to those already past due
func openDocuments(m any, statuses []string, tenantID uint, overdueOnly bool) agingRow {
	query := database.GetDB().Model(m).
		Where("tenant_id = ? AND status IN ?", tenantID, statuses)
	if overdueOnly {
		query = query.Where("due_date < ?", time.Now().Truncate(24*time.Hour))
	}
	var row agingRow
	query.Select("COUNT(*) AS cnt, COALESCE(SUM(total - amount_paid), 0) AS amount").Scan(&row)
	return row
}

func draftCount(m any, tenantID uint) int64 {
	var count int64
	database.GetDB().Model(m).Where("tenant_id = ? AND status = ?", tenantID, "draft").Count(&count)
	return count
}

// GetDashboardSummary returns the headline figures for the current tenant:
// cash, balance totals, fiscal year to date performance, open receivables and
// payables, and draft document counts
func GetDashboardSummary(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("dashboard")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	settings, err := tenantSettings(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Tenant settings not found", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build dashboard"})
	}

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build dashboard"})
	}

	now := time.Now()
	totals := report.TypeTotals(accounts, entries, now)
	cash := report.CashBalance(accounts, entries, now)
	fyStart := report.FiscalYearStart(now, settings.FiscalYearStartMonth)

	// Revenue and expenses reset with the fiscal year, so only entries from
	// its start count towards the year-to-date figures
	period := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.Before(fyStart) {
			period = append(period, e)
		}
	}
	ytd := report.TypeTotals(accounts, period, now)
	revenue := ytd[model.AccountRevenue]
	expenses := ytd[model.AccountExpense]

	// Accumulated earnings count as equity, as on the balance sheet
	allTimeNet := totals[model.AccountRevenue].Sub(totals[model.AccountExpense])
	equity := totals[model.AccountEquity].Add(allTimeNet)

	receivable := openDocuments(&model.Invoice{}, []string{model.InvoiceSent, model.InvoicePartial}, tenantID, false)
	overdueRecv := openDocuments(&model.Invoice{}, []string{model.InvoiceSent, model.InvoicePartial}, tenantID, true)
	payable := openDocuments(&model.Bill{}, []string{model.BillReceived, model.BillPartial}, tenantID, false)
	overduePay := openDocuments(&model.Bill{}, []string{model.BillReceived, model.BillPartial}, tenantID, true)

	return c.JSON(http.StatusOK, echo.Map{
		"as_of":             now.Format(report.DateLayout),
		"base_currency":     settings.BaseCurrency,
		"fiscal_year_start": fyStart.Format(report.DateLayout),
		"cash_balance":      cash,
		"totals": echo.Map{
			"assets":      totals[model.AccountAsset],
			"liabilities": totals[model.AccountLiability],
			"equity":      equity,
		},
		"fiscal_ytd": echo.Map{
			"revenue":    revenue,
			"expenses":   expenses,
			"net_profit": revenue.Sub(expenses),
		},
		"receivable": echo.Map{
			"open_count":     receivable.Count,
			"open_amount":    receivable.Amount,
			"overdue_count":  overdueRecv.Count,
			"overdue_amount": overdueRecv.Amount,
		},
		"payable": echo.Map{
			"open_count":     payable.Count,
			"open_amount":    payable.Amount,
			"overdue_count":  overduePay.Count,
			"overdue_amount": overduePay.Amount,
		},
		"drafts": echo.Map{
			"invoices":        draftCount(&model.Invoice{}, tenantID),
			"bills":           draftCount(&model.Bill{}, tenantID),
			"journal_entries": draftCount(&model.JournalEntry{}, tenantID),
		},
	})
}

// GetCashflow returns monthly cash inflows and outflows over the requested
// window (default 6 months, capped at 24)
func GetCashflow(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("cashflow")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	months := 6
	if m := c.QueryParam("months"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "months must be a positive integer"})
		}
		months = v
	}
	if months > 24 {
		months = 24
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build cashflow"})
	}

	return c.JSON(http.StatusOK, report.BuildCashflow(accounts, entries, months, time.Now()))
}

// GetRatios returns the financial ratio catalog, optionally as of a given
// date
func GetRatios(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("ratios")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	asOf, err := parseDate(c.QueryParam("as_of"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "as_of must be in YYYY-MM-DD format"})
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build ratios"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"as_of":  asOf.Format(report.DateLayout),
		"ratios": report.BuildRatios(accounts, entries, asOf),
	})
}
