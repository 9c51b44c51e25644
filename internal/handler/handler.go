package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// parsePagination reads page/limit query parameters with the usual defaults
// and caps.
func parsePagination(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}
	return page, limit, (page - 1) * limit
}

// totalPages computes the page count for a pagination block.
func totalPages(total int64, limit int) int {
	return (int(total) + limit - 1) / limit
}

// parseDate parses a date query parameter. An empty value yields the zero
// time with no error.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(report.DateLayout, value)
}

// parseDateRange reads the from/to query parameters.
func parseDateRange(c echo.Context) (from, to time.Time, err error) {
	from, err = parseDate(c.QueryParam("from"))
	if err != nil {
		return from, to, err
	}
	to, err = parseDate(c.QueryParam("to"))
	return from, to, err
}

// nextDocumentNumber reserves the next number of a tenant's document
// sequence inside the transaction. The settings row is locked so concurrent
// documents cannot draw the same number.
func nextDocumentNumber(tx *gorm.DB, tenantID uint, doc string) (string, error) {
	var settings model.TenantSettings
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&settings).Error; err != nil {
		return "", err
	}

	var number string
	var update map[string]interface{}
	switch doc {
	case "invoice":
		number = model.FormatDocumentNumber(settings.InvoicePrefix, settings.NextInvoiceNumber)
		update = map[string]interface{}{"next_invoice_number": settings.NextInvoiceNumber + 1}
	case "bill":
		number = model.FormatDocumentNumber(settings.BillPrefix, settings.NextBillNumber)
		update = map[string]interface{}{"next_bill_number": settings.NextBillNumber + 1}
	case "journal":
		number = model.FormatDocumentNumber(settings.JournalPrefix, settings.NextJournalNumber)
		update = map[string]interface{}{"next_journal_number": settings.NextJournalNumber + 1}
	}

	if err := tx.Model(&settings).Updates(update).Error; err != nil {
		return "", err
	}
	return number, nil
}

// tenantSettings loads the settings row for a tenant.
func tenantSettings(db *gorm.DB, tenantID uint) (model.TenantSettings, error) {
	var settings model.TenantSettings
	err := db.Where("tenant_id = ?", tenantID).First(&settings).Error
	return settings, err
}
