package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/events"
	"github.com/xadn01/finnepal/internal/export"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// DocumentLineRequest is one row of an invoice or bill request
type DocumentLineRequest struct {
	ItemID      *uint           `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceRequest defines the structure for invoice creation/update requests
type InvoiceRequest struct {
	CustomerID uint                  `json:"customer_id" validate:"required"`
	IssueDate  string                `json:"issue_date" validate:"required"`
	DueDate    string                `json:"due_date"`
	Currency   string                `json:"currency"`
	TaxRate    *decimal.Decimal      `json:"tax_rate,omitempty"`
	Notes      string                `json:"notes"`
	Lines      []DocumentLineRequest `json:"lines"`
}

// PaymentRequest defines the structure for recording a payment
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Date   string          `json:"date"`
	Method string          `json:"method"`
	Notes  string          `json:"notes"`
}

// documentLinesValid checks quantities and prices and that referenced items
// belong to the tenant. Returns an empty string when valid.
func documentLinesValid(tenantID uint, lines []DocumentLineRequest) string {
	if len(lines) == 0 {
		return "at least one line is required"
	}

	ids := make([]uint, 0, len(lines))
	seen := map[uint]bool{}
	for _, l := range lines {
		if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
			return "quantity and unit_price cannot be negative"
		}
		if l.ItemID != nil && !seen[*l.ItemID] {
			seen[*l.ItemID] = true
			ids = append(ids, *l.ItemID)
		}
	}

	if len(ids) > 0 {
		var count int64
		database.GetDB().Model(&model.Item{}).
			Where("tenant_id = ? AND id IN ?", tenantID, ids).
			Count(&count)
		if count != int64(len(ids)) {
			return "one or more items do not belong to this tenant"
		}
	}
	return ""
}

// buildInvoiceLines converts request lines into invoice lines, defaulting the
// description and price from the referenced item where not given.
func buildInvoiceLines(tenantID uint, lines []DocumentLineRequest) []model.InvoiceLine {
	items := loadItems(tenantID, lines)

	out := make([]model.InvoiceLine, 0, len(lines))
	for _, l := range lines {
		line := model.InvoiceLine{
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
		if line.Quantity.IsZero() {
			line.Quantity = decimal.NewFromInt(1)
		}
		if l.ItemID != nil {
			if item, ok := items[*l.ItemID]; ok {
				if line.Description == "" {
					line.Description = item.Name
				}
				if line.UnitPrice.IsZero() {
					line.UnitPrice = item.SalePrice
				}
			}
		}
		out = append(out, line)
	}
	return out
}

// loadItems fetches the referenced items of a line set keyed by ID
func loadItems(tenantID uint, lines []DocumentLineRequest) map[uint]model.Item {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if l.ItemID != nil {
			ids = append(ids, *l.ItemID)
		}
	}
	items := map[uint]model.Item{}
	if len(ids) == 0 {
		return items
	}
	var rows []model.Item
	database.GetDB().Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&rows)
	for _, it := range rows {
		items[it.ID] = it
	}
	return items
}

// CreateInvoice creates a new draft invoice and assigns it the next number of
// the tenant's invoice sequence
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "create")

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil || issueDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "issue_date is required in YYYY-MM-DD format"})
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be in YYYY-MM-DD format"})
	}
	if dueDate.IsZero() {
		dueDate = issueDate
	}

	// The customer must belong to this tenant
	var customer model.Customer
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", req.CustomerID, tenantID).First(&customer); result.Error != nil {
		log.Warn("Customer not found for tenant",
			zap.Uint("customer_id", req.CustomerID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer not found for this tenant"})
	}

	if msg := documentLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid invoice lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	settings, err := tenantSettings(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Tenant settings not found", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}

	invoice := model.Invoice{
		TenantID:   tenantID,
		CustomerID: req.CustomerID,
		Status:     model.InvoiceDraft,
		Currency:   req.Currency,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Notes:      req.Notes,
		CreatedBy:  userID,
		UpdatedBy:  userID,
	}
	if invoice.Currency == "" {
		invoice.Currency = settings.BaseCurrency
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tax_rate cannot be negative"})
		}
		invoice.TaxRate = *req.TaxRate
	} else {
		invoice.TaxRate = settings.DefaultTaxRate
	}
	invoice.Lines = buildInvoiceLines(tenantID, req.Lines)
	invoice.ComputeTotals()

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	number, err := nextDocumentNumber(tx, tenantID, "invoice")
	if err != nil {
		tx.Rollback()
		log.Error("Failed to reserve invoice number", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}
	invoice.Number = number

	if result := tx.Create(&invoice); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create invoice", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	go updateInvoiceCount(tenantID)

	log.Info("Invoice created",
		zap.String("number", invoice.Number),
		zap.Uint("invoice_id", invoice.ID),
		zap.Uint("customer_id", invoice.CustomerID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice retrieves a single invoice with its lines and customer
func GetInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	result := database.GetDB().Preload("Lines").Preload("Customer").Where("id = ?", id).First(&invoice)
	if result.Error != nil {
		log.Error("Invoice not found", zap.Uint64("invoice_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	// Ensure the invoice belongs to the tenant in the JWT token
	if invoice.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access invoice from different tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("invoice_tenant", invoice.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this invoice"})
	}

	return c.JSON(http.StatusOK, invoice)
}

// documentTotals aggregates a filtered invoice or bill list
type documentTotals struct {
	Amount    decimal.Decimal `gorm:"column:amount"`
	AmountDue decimal.Decimal `gorm:"column:amount_due"`
}

// invoiceListQuery applies the list filters shared by ListInvoices and the
// XLSX export
func invoiceListQuery(c echo.Context, tenantID uint) (*gorm.DB, error) {
	from, to, err := parseDateRange(c)
	if err != nil {
		return nil, err
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if !from.IsZero() {
		query = query.Where("issue_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("issue_date <= ?", to)
	}
	if overdue := c.QueryParam("overdue"); overdue == "true" {
		query = query.Where("status IN ? AND due_date < ?",
			[]string{model.InvoiceSent, model.InvoicePartial}, time.Now().Truncate(24*time.Hour))
	}
	return query, nil
}

// ListInvoices retrieves invoices for the current tenant
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	query, err := invoiceListQuery(c, tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	result := query.
		Preload("Customer").
		Order("issue_date desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&invoices)

	if result.Error != nil {
		log.Error("Failed to retrieve invoices",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count and
	// totals each run on a fresh chain
	var total int64
	countQuery, _ := invoiceListQuery(c, tenantID)
	countQuery.Model(&model.Invoice{}).Count(&total)

	// Outstanding position of the filtered set
	var totals documentTotals
	totalsQuery, _ := invoiceListQuery(c, tenantID)
	totalsQuery.Model(&model.Invoice{}).
		Select("COALESCE(SUM(total), 0) AS amount, COALESCE(SUM(CASE WHEN status IN ('sent', 'partial') THEN total - amount_paid ELSE 0 END), 0) AS amount_due").
		Scan(&totals)

	return c.JSON(http.StatusOK, echo.Map{
		"invoices": invoices,
		"totals": echo.Map{
			"amount":     totals.Amount,
			"amount_due": totals.AmountDue,
		},
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateInvoice replaces the header fields and lines of a draft invoice.
// Sent, paid and void invoices are immutable.
func UpdateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var invoice model.Invoice
	result := database.GetDB().Where("id = ?", id).First(&invoice)
	if result.Error != nil {
		log.Error("Invoice not found for update", zap.Uint64("invoice_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	// Ensure the invoice belongs to the tenant in the JWT token
	if invoice.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update invoice from different tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("invoice_tenant", invoice.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this invoice"})
	}

	if invoice.Status != model.InvoiceDraft {
		log.Warn("Attempted to edit a non-draft invoice",
			zap.Uint64("invoice_id", id),
			zap.String("status", invoice.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft invoices can be edited"})
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil || issueDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "issue_date is required in YYYY-MM-DD format"})
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be in YYYY-MM-DD format"})
	}
	if dueDate.IsZero() {
		dueDate = issueDate
	}

	// The customer must belong to this tenant
	var customer model.Customer
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", req.CustomerID, tenantID).First(&customer); result.Error != nil {
		log.Warn("Customer not found for tenant",
			zap.Uint("customer_id", req.CustomerID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer not found for this tenant"})
	}

	if msg := documentLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid invoice lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	invoice.CustomerID = req.CustomerID
	invoice.IssueDate = issueDate
	invoice.DueDate = dueDate
	invoice.Notes = req.Notes
	invoice.UpdatedBy = userID
	if req.Currency != "" {
		invoice.Currency = req.Currency
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tax_rate cannot be negative"})
		}
		invoice.TaxRate = *req.TaxRate
	}
	invoice.Lines = buildInvoiceLines(tenantID, req.Lines)
	for i := range invoice.Lines {
		invoice.Lines[i].InvoiceID = invoice.ID
	}
	invoice.ComputeTotals()

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Replace the lines wholesale
	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceLine{}).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to delete invoice lines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
	}
	if err := tx.Save(&invoice).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Invoice updated",
		zap.Uint64("invoice_id", id),
		zap.String("number", invoice.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice removes a draft invoice (soft delete)
func DeleteInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var invoice model.Invoice
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice)
	if preResult.Error != nil {
		log.Warn("Invoice not found or does not belong to tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	if invoice.Status != model.InvoiceDraft {
		log.Warn("Attempted to delete a non-draft invoice",
			zap.Uint64("invoice_id", id),
			zap.String("status", invoice.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft invoices can be deleted; void sent invoices instead"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&invoice)
	if result.Error != nil {
		log.Error("Failed to delete invoice",
			zap.Uint64("invoice_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete invoice"})
	}

	go updateInvoiceCount(tenantID)

	log.Info("Invoice deleted",
		zap.Uint64("invoice_id", id),
		zap.String("number", invoice.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice deleted successfully"})
}

// SendInvoice marks a draft invoice as sent, locking it for edits
func SendInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "send")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var invoice model.Invoice
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice)
	if result.Error != nil {
		log.Warn("Invoice not found or does not belong to tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	if invoice.Status != model.InvoiceDraft {
		log.Warn("Attempted to send a non-draft invoice",
			zap.Uint64("invoice_id", id),
			zap.String("status", invoice.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft invoices can be sent"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	invoice.Status = model.InvoiceSent
	invoice.UpdatedBy = userID
	if result := database.GetDB().Save(&invoice); result.Error != nil {
		log.Error("Failed to send invoice", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send invoice"})
	}

	events.Emit(events.TopicSales, events.InvoiceEvent{
		Event:      "invoice.sent",
		TenantID:   invoice.TenantID,
		InvoiceID:  invoice.ID,
		Number:     invoice.Number,
		CustomerID: invoice.CustomerID,
		Status:     invoice.Status,
		Currency:   invoice.Currency,
		Total:      invoice.Total,
		AmountPaid: invoice.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Invoice sent",
		zap.String("number", invoice.Number),
		zap.Uint("invoice_id", invoice.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, invoice)
}

// VoidInvoice voids a sent or partially paid invoice. Paid invoices cannot
// be voided.
func VoidInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "void")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var invoice model.Invoice
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice)
	if result.Error != nil {
		log.Warn("Invoice not found or does not belong to tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	if invoice.Status != model.InvoiceSent && invoice.Status != model.InvoicePartial {
		log.Warn("Attempted to void invoice in invalid state",
			zap.Uint64("invoice_id", id),
			zap.String("status", invoice.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only sent or partially paid invoices can be voided"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	invoice.Status = model.InvoiceVoid
	invoice.UpdatedBy = userID
	if result := database.GetDB().Save(&invoice); result.Error != nil {
		log.Error("Failed to void invoice", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to void invoice"})
	}

	events.Emit(events.TopicSales, events.InvoiceEvent{
		Event:      "invoice.voided",
		TenantID:   invoice.TenantID,
		InvoiceID:  invoice.ID,
		Number:     invoice.Number,
		CustomerID: invoice.CustomerID,
		Status:     invoice.Status,
		Currency:   invoice.Currency,
		Total:      invoice.Total,
		AmountPaid: invoice.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Invoice voided",
		zap.String("number", invoice.Number),
		zap.Uint("invoice_id", invoice.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, invoice)
}

// RecordInvoicePayment records a payment against a sent or partially paid
// invoice and moves it to partial or paid
func RecordInvoicePayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "payment")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	paymentDate, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be in YYYY-MM-DD format"})
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now().Truncate(24 * time.Hour)
	}

	var invoice model.Invoice
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice)
	if result.Error != nil {
		log.Warn("Invoice not found or does not belong to tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	if !invoice.Payable() {
		log.Warn("Attempted payment on non-payable invoice",
			zap.Uint64("invoice_id", id),
			zap.String("status", invoice.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Payments can only be recorded on sent or partially paid invoices"})
	}

	if req.Amount.GreaterThan(invoice.AmountDue()) {
		log.Warn("Payment exceeds amount due",
			zap.Uint64("invoice_id", id),
			zap.String("amount", req.Amount.String()),
			zap.String("amount_due", invoice.AmountDue().String()))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment exceeds the amount due"})
	}

	payment := model.Payment{
		TenantID:     tenantID,
		DocumentType: model.DocumentInvoice,
		DocumentID:   invoice.ID,
		Date:         paymentDate,
		Amount:       req.Amount,
		Method:       req.Method,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}

	invoice.AmountPaid = invoice.AmountPaid.Add(req.Amount)
	if invoice.AmountPaid.GreaterThanOrEqual(invoice.Total) {
		invoice.Status = model.InvoicePaid
	} else {
		invoice.Status = model.InvoicePartial
	}
	invoice.UpdatedBy = userID

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to record payment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record payment"})
	}
	if err := tx.Save(&invoice).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record payment"})
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	event := "invoice.payment"
	if invoice.Status == model.InvoicePaid {
		event = "invoice.paid"
	}
	events.Emit(events.TopicSales, events.InvoiceEvent{
		Event:      event,
		TenantID:   invoice.TenantID,
		InvoiceID:  invoice.ID,
		Number:     invoice.Number,
		CustomerID: invoice.CustomerID,
		Status:     invoice.Status,
		Currency:   invoice.Currency,
		Total:      invoice.Total,
		AmountPaid: invoice.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Invoice payment recorded",
		zap.String("number", invoice.Number),
		zap.String("amount", req.Amount.String()),
		zap.String("status", invoice.Status),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{
		"invoice": invoice,
		"payment": payment,
	})
}

// ListInvoicePayments lists the payments recorded against an invoice
func ListInvoicePayments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "payments")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	var payments []model.Payment
	if result := database.GetDB().
		Where("tenant_id = ? AND document_type = ? AND document_id = ?", tenantID, model.DocumentInvoice, id).
		Order("date asc, id asc").
		Find(&payments); result.Error != nil {
		log.Error("Failed to retrieve payments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve payments"})
	}

	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// InvoicePDF renders the invoice as a PDF document
func InvoicePDF(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "pdf")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	result := database.GetDB().Preload("Lines").Preload("Customer").
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&invoice)
	if result.Error != nil {
		log.Warn("Invoice not found or does not belong to tenant",
			zap.Uint64("invoice_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	settings, err := tenantSettings(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Tenant settings not found", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to render invoice"})
	}

	data, err := export.InvoicePDF(invoice, settings)
	if err != nil {
		log.Error("Failed to render invoice PDF", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to render invoice"})
	}

	prometheus.RecordExport("pdf")

	log.Info("Invoice PDF rendered",
		zap.String("number", invoice.Number),
		zap.Int("bytes", len(data)),
		zap.Uint("tenant_id", tenantID))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", invoice.Number+".pdf"))
	return c.Blob(http.StatusOK, export.PDFContentType, data)
}

// ExportInvoicesXLSX exports the filtered invoice register as a spreadsheet
func ExportInvoicesXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("invoice", "export")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	query, err := invoiceListQuery(c, tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if result := query.Preload("Customer").Order("issue_date asc, id asc").Find(&invoices); result.Error != nil {
		log.Error("Failed to retrieve invoices", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	data, err := export.InvoiceRegisterXLSX(invoices)
	if err != nil {
		log.Error("Failed to build invoice export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	log.Info("Invoice register exported",
		zap.Int("invoices", len(invoices)),
		zap.Uint("tenant_id", tenantID))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}

// updateInvoiceCount refreshes the per-tenant invoice gauge
func updateInvoiceCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Invoice{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "invoice", count)
	}
}
