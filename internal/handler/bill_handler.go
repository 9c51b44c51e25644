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

// BillRequest defines the structure for bill creation/update requests
type BillRequest struct {
	VendorID  uint                  `json:"vendor_id" validate:"required"`
	BillDate  string                `json:"bill_date" validate:"required"`
	DueDate   string                `json:"due_date"`
	Currency  string                `json:"currency"`
	Reference string                `json:"reference"`
	TaxRate   *decimal.Decimal      `json:"tax_rate,omitempty"`
	Notes     string                `json:"notes"`
	Lines     []DocumentLineRequest `json:"lines"`
}

// buildBillLines converts request lines into bill lines, defaulting the
// description and price from the referenced item where not given. Bills
// default to the item's purchase price rather than its sale price.
func buildBillLines(tenantID uint, lines []DocumentLineRequest) []model.BillLine {
	items := loadItems(tenantID, lines)

	out := make([]model.BillLine, 0, len(lines))
	for _, l := range lines {
		line := model.BillLine{
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
					line.UnitPrice = item.PurchasePrice
				}
			}
		}
		out = append(out, line)
	}
	return out
}

// CreateBill creates a new draft bill and assigns it the next number of the
// tenant's bill sequence
func CreateBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "create")

	var req BillRequest
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

	billDate, err := parseDate(req.BillDate)
	if err != nil || billDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bill_date is required in YYYY-MM-DD format"})
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be in YYYY-MM-DD format"})
	}
	if dueDate.IsZero() {
		dueDate = billDate
	}

	// The vendor must belong to this tenant
	var vendor model.Vendor
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", req.VendorID, tenantID).First(&vendor); result.Error != nil {
		log.Warn("Vendor not found for tenant",
			zap.Uint("vendor_id", req.VendorID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor not found for this tenant"})
	}

	if msg := documentLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid bill lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	settings, err := tenantSettings(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Tenant settings not found", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create bill"})
	}

	bill := model.Bill{
		TenantID:  tenantID,
		VendorID:  req.VendorID,
		Status:    model.BillDraft,
		Currency:  req.Currency,
		BillDate:  billDate,
		DueDate:   dueDate,
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if bill.Currency == "" {
		bill.Currency = settings.BaseCurrency
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tax_rate cannot be negative"})
		}
		bill.TaxRate = *req.TaxRate
	} else {
		bill.TaxRate = settings.DefaultTaxRate
	}
	bill.Lines = buildBillLines(tenantID, req.Lines)
	bill.ComputeTotals()

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	number, err := nextDocumentNumber(tx, tenantID, "bill")
	if err != nil {
		tx.Rollback()
		log.Error("Failed to reserve bill number", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create bill"})
	}
	bill.Number = number

	if result := tx.Create(&bill); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create bill", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create bill"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	go updateBillCount(tenantID)

	log.Info("Bill created",
		zap.String("number", bill.Number),
		zap.Uint("bill_id", bill.ID),
		zap.Uint("vendor_id", bill.VendorID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, bill)
}

// GetBill retrieves a single bill with its lines and vendor
func GetBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	result := database.GetDB().Preload("Lines").Preload("Vendor").Where("id = ?", id).First(&bill)
	if result.Error != nil {
		log.Error("Bill not found", zap.Uint64("bill_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	// Ensure the bill belongs to the tenant in the JWT token
	if bill.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access bill from different tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("bill_tenant", bill.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this bill"})
	}

	return c.JSON(http.StatusOK, bill)
}

// billListQuery applies the list filters shared by ListBills and the XLSX
// export
func billListQuery(c echo.Context, tenantID uint) (*gorm.DB, error) {
	from, to, err := parseDateRange(c)
	if err != nil {
		return nil, err
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if !from.IsZero() {
		query = query.Where("bill_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("bill_date <= ?", to)
	}
	if overdue := c.QueryParam("overdue"); overdue == "true" {
		query = query.Where("status IN ? AND due_date < ?",
			[]string{model.BillReceived, model.BillPartial}, time.Now().Truncate(24*time.Hour))
	}
	return query, nil
}

// ListBills retrieves bills for the current tenant
func ListBills(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	query, err := billListQuery(c, tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var bills []model.Bill
	result := query.
		Preload("Vendor").
		Order("bill_date desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&bills)

	if result.Error != nil {
		log.Error("Failed to retrieve bills",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve bills"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count and
	// totals each run on a fresh chain
	var total int64
	countQuery, _ := billListQuery(c, tenantID)
	countQuery.Model(&model.Bill{}).Count(&total)

	// Outstanding position of the filtered set
	var totals documentTotals
	totalsQuery, _ := billListQuery(c, tenantID)
	totalsQuery.Model(&model.Bill{}).
		Select("COALESCE(SUM(total), 0) AS amount, COALESCE(SUM(CASE WHEN status IN ('received', 'partial') THEN total - amount_paid ELSE 0 END), 0) AS amount_due").
		Scan(&totals)

	return c.JSON(http.StatusOK, echo.Map{
		"bills": bills,
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

// UpdateBill replaces the header fields and lines of a draft bill. Received,
// paid and void bills are immutable.
func UpdateBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
	}

	var req BillRequest
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

	var bill model.Bill
	result := database.GetDB().Where("id = ?", id).First(&bill)
	if result.Error != nil {
		log.Error("Bill not found for update", zap.Uint64("bill_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	// Ensure the bill belongs to the tenant in the JWT token
	if bill.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update bill from different tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("bill_tenant", bill.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this bill"})
	}

	if bill.Status != model.BillDraft {
		log.Warn("Attempted to edit a non-draft bill",
			zap.Uint64("bill_id", id),
			zap.String("status", bill.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft bills can be edited"})
	}

	billDate, err := parseDate(req.BillDate)
	if err != nil || billDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bill_date is required in YYYY-MM-DD format"})
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be in YYYY-MM-DD format"})
	}
	if dueDate.IsZero() {
		dueDate = billDate
	}

	// The vendor must belong to this tenant
	var vendor model.Vendor
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", req.VendorID, tenantID).First(&vendor); result.Error != nil {
		log.Warn("Vendor not found for tenant",
			zap.Uint("vendor_id", req.VendorID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor not found for this tenant"})
	}

	if msg := documentLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid bill lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	bill.VendorID = req.VendorID
	bill.BillDate = billDate
	bill.DueDate = dueDate
	bill.Reference = req.Reference
	bill.Notes = req.Notes
	bill.UpdatedBy = userID
	if req.Currency != "" {
		bill.Currency = req.Currency
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tax_rate cannot be negative"})
		}
		bill.TaxRate = *req.TaxRate
	}
	bill.Lines = buildBillLines(tenantID, req.Lines)
	for i := range bill.Lines {
		bill.Lines[i].BillID = bill.ID
	}
	bill.ComputeTotals()

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Replace the lines wholesale
	if err := tx.Where("bill_id = ?", bill.ID).Delete(&model.BillLine{}).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to delete bill lines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update bill"})
	}
	if err := tx.Save(&bill).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update bill", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update bill"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Bill updated",
		zap.Uint64("bill_id", id),
		zap.String("number", bill.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, bill)
}

// DeleteBill removes a draft bill (soft delete)
func DeleteBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var bill model.Bill
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill)
	if preResult.Error != nil {
		log.Warn("Bill not found or does not belong to tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	if bill.Status != model.BillDraft {
		log.Warn("Attempted to delete a non-draft bill",
			zap.Uint64("bill_id", id),
			zap.String("status", bill.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft bills can be deleted; void received bills instead"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&bill)
	if result.Error != nil {
		log.Error("Failed to delete bill",
			zap.Uint64("bill_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete bill"})
	}

	go updateBillCount(tenantID)

	log.Info("Bill deleted",
		zap.Uint64("bill_id", id),
		zap.String("number", bill.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Bill deleted successfully"})
}

// ReceiveBill marks a draft bill as received, locking it for edits
func ReceiveBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "receive")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill)
	if result.Error != nil {
		log.Warn("Bill not found or does not belong to tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	if bill.Status != model.BillDraft {
		log.Warn("Attempted to receive a non-draft bill",
			zap.Uint64("bill_id", id),
			zap.String("status", bill.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft bills can be received"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	bill.Status = model.BillReceived
	bill.UpdatedBy = userID
	if result := database.GetDB().Save(&bill); result.Error != nil {
		log.Error("Failed to receive bill", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to receive bill"})
	}

	events.Emit(events.TopicPurchases, events.BillEvent{
		Event:      "bill.received",
		TenantID:   bill.TenantID,
		BillID:     bill.ID,
		Number:     bill.Number,
		VendorID:   bill.VendorID,
		Status:     bill.Status,
		Currency:   bill.Currency,
		Total:      bill.Total,
		AmountPaid: bill.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Bill received",
		zap.String("number", bill.Number),
		zap.Uint("bill_id", bill.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, bill)
}

// VoidBill voids a received or partially paid bill. Paid bills cannot be
// voided.
func VoidBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "void")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill)
	if result.Error != nil {
		log.Warn("Bill not found or does not belong to tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	if bill.Status != model.BillReceived && bill.Status != model.BillPartial {
		log.Warn("Attempted to void bill in invalid state",
			zap.Uint64("bill_id", id),
			zap.String("status", bill.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only received or partially paid bills can be voided"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	bill.Status = model.BillVoid
	bill.UpdatedBy = userID
	if result := database.GetDB().Save(&bill); result.Error != nil {
		log.Error("Failed to void bill", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to void bill"})
	}

	events.Emit(events.TopicPurchases, events.BillEvent{
		Event:      "bill.voided",
		TenantID:   bill.TenantID,
		BillID:     bill.ID,
		Number:     bill.Number,
		VendorID:   bill.VendorID,
		Status:     bill.Status,
		Currency:   bill.Currency,
		Total:      bill.Total,
		AmountPaid: bill.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Bill voided",
		zap.String("number", bill.Number),
		zap.Uint("bill_id", bill.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, bill)
}

// RecordBillPayment records a payment against a received or partially paid
// bill and moves it to partial or paid
func RecordBillPayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "payment")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill)
	if result.Error != nil {
		log.Warn("Bill not found or does not belong to tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	if !bill.Payable() {
		log.Warn("Attempted payment on non-payable bill",
			zap.Uint64("bill_id", id),
			zap.String("status", bill.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Payments can only be recorded on received or partially paid bills"})
	}

	if req.Amount.GreaterThan(bill.AmountDue()) {
		log.Warn("Payment exceeds amount due",
			zap.Uint64("bill_id", id),
			zap.String("amount", req.Amount.String()),
			zap.String("amount_due", bill.AmountDue().String()))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment exceeds the amount due"})
	}

	payment := model.Payment{
		TenantID:     tenantID,
		DocumentType: model.DocumentBill,
		DocumentID:   bill.ID,
		Date:         paymentDate,
		Amount:       req.Amount,
		Method:       req.Method,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}

	bill.AmountPaid = bill.AmountPaid.Add(req.Amount)
	if bill.AmountPaid.GreaterThanOrEqual(bill.Total) {
		bill.Status = model.BillPaid
	} else {
		bill.Status = model.BillPartial
	}
	bill.UpdatedBy = userID

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
	if err := tx.Save(&bill).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update bill", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record payment"})
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	event := "bill.payment"
	if bill.Status == model.BillPaid {
		event = "bill.paid"
	}
	events.Emit(events.TopicPurchases, events.BillEvent{
		Event:      event,
		TenantID:   bill.TenantID,
		BillID:     bill.ID,
		Number:     bill.Number,
		VendorID:   bill.VendorID,
		Status:     bill.Status,
		Currency:   bill.Currency,
		Total:      bill.Total,
		AmountPaid: bill.AmountPaid,
		OccurredAt: time.Now(),
	})

	log.Info("Bill payment recorded",
		zap.String("number", bill.Number),
		zap.String("amount", req.Amount.String()),
		zap.String("status", bill.Status),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{
		"bill":    bill,
		"payment": payment,
	})
}

// ListBillPayments lists the payments recorded against a bill
func ListBillPayments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "payments")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	var payments []model.Payment
	if result := database.GetDB().
		Where("tenant_id = ? AND document_type = ? AND document_id = ?", tenantID, model.DocumentBill, id).
		Order("date asc, id asc").
		Find(&payments); result.Error != nil {
		log.Error("Failed to retrieve payments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve payments"})
	}

	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// BillPDF renders the bill as a PDF document
func BillPDF(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "pdf")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid bill ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
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

	var bill model.Bill
	result := database.GetDB().Preload("Lines").Preload("Vendor").
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&bill)
	if result.Error != nil {
		log.Warn("Bill not found or does not belong to tenant",
			zap.Uint64("bill_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bill not found"})
	}

	settings, err := tenantSettings(database.GetDB(), tenantID)
	if err != nil {
		log.Error("Tenant settings not found", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to render bill"})
	}

	data, err := export.BillPDF(bill, settings)
	if err != nil {
		log.Error("Failed to render bill PDF", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to render bill"})
	}

	prometheus.RecordExport("pdf")

	log.Info("Bill PDF rendered",
		zap.String("number", bill.Number),
		zap.Int("bytes", len(data)),
		zap.Uint("tenant_id", tenantID))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", bill.Number+".pdf"))
	return c.Blob(http.StatusOK, export.PDFContentType, data)
}

// ExportBillsXLSX exports the filtered bill register as a spreadsheet
func ExportBillsXLSX(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("bill", "export")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	query, err := billListQuery(c, tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var bills []model.Bill
	if result := query.Preload("Vendor").Order("bill_date asc, id asc").Find(&bills); result.Error != nil {
		log.Error("Failed to retrieve bills", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve bills"})
	}

	data, err := export.BillRegisterXLSX(bills)
	if err != nil {
		log.Error("Failed to build bill export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build export"})
	}

	prometheus.RecordExport("xlsx")

	log.Info("Bill register exported",
		zap.Int("bills", len(bills)),
		zap.Uint("tenant_id", tenantID))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bills.xlsx"`)
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}

// updateBillCount refreshes the per-tenant bill gauge
func updateBillCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Bill{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "bill", count)
	}
}
