package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xadn01/finnepal/internal/export"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// GetTrialBalance returns the trial balance over an optional date range
func GetTrialBalance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("trial_balance")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	return c.JSON(http.StatusOK, report.BuildTrialBalance(accounts, entries, from, to))
}

// ExportTrialBalanceXLSX returns the trial balance as a spreadsheet
func ExportTrialBalanceXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("trial_balance")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	data, err := export.TrialBalanceXLSX(report.BuildTrialBalance(accounts, entries, from, to))
	if err != nil {
		log.Error("Failed to build trial balance export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="trial-balance.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}

// GetProfitLoss returns the profit and loss statement over an optional date
// range
func GetProfitLoss(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("profit_loss")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	return c.JSON(http.StatusOK, report.BuildProfitLoss(accounts, entries, from, to))
}

// ExportProfitLossXLSX returns the profit and loss statement as a spreadsheet
func ExportProfitLossXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("profit_loss")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, entries, err := loadLedger(tenantID)
	if err != nil {
		log.Error("Failed to load ledger", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	data, err := export.ProfitLossXLSX(report.BuildProfitLoss(accounts, entries, from, to))
	if err != nil {
		log.Error("Failed to build profit and loss export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="profit-loss.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}

// GetBalanceSheet returns the balance sheet as of a date (default today)
func GetBalanceSheet(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("balance_sheet")

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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	return c.JSON(http.StatusOK, report.BuildBalanceSheet(accounts, entries, asOf))
}

// ExportBalanceSheetXLSX returns the balance sheet as a spreadsheet
func ExportBalanceSheetXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("balance_sheet")

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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	data, err := export.BalanceSheetXLSX(report.BuildBalanceSheet(accounts, entries, asOf))
	if err != nil {
		log.Error("Failed to build balance sheet export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="balance-sheet.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}

// ExportAccountLedgerXLSX returns a single account's ledger as a spreadsheet
func ExportAccountLedgerXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportRequest("account_ledger")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid account ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid account ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var account model.Account
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&account); result.Error != nil {
		log.Warn("Account not found or does not belong to tenant",
			zap.Uint64("account_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	var entries []model.LedgerEntry
	if result := database.GetDB().
		Where("tenant_id = ? AND account_id = ?", tenantID, account.ID).
		Order("date asc, id asc").
		Find(&entries); result.Error != nil {
		log.Error("Failed to load ledger entries", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build report"})
	}

	data, err := export.AccountLedgerXLSX(report.BuildAccountLedger(account, entries, from, to))
	if err != nil {
		log.Error("Failed to build account ledger export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "ledger-"+account.Code+".xlsx"))
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}
