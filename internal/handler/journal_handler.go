package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/events"
	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// JournalLineRequest is one debit/credit row of a journal entry request
type JournalLineRequest struct {
	AccountID   uint            `json:"account_id" validate:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// JournalRequest defines the structure for journal entry creation/update requests
type JournalRequest struct {
	Date      string               `json:"date" validate:"required"`
	Memo      string               `json:"memo"`
	Reference string               `json:"reference"`
	Post      bool                 `json:"post"` // create and post in one step
	Lines     []JournalLineRequest `json:"lines"`
}

// journalLinesValid checks that the lines reference the tenant's own accounts
// and carry well-formed amounts. Debits and credits are not required to
// balance. Returns an empty string when valid.
func journalLinesValid(tenantID uint, lines []JournalLineRequest) string {
	if len(lines) == 0 {
		return "at least one line is required"
	}

	ids := make([]uint, 0, len(lines))
	seen := map[uint]bool{}
	for _, l := range lines {
		if l.AccountID == 0 {
			return "every line needs an account_id"
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return "debit and credit amounts cannot be negative"
		}
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			return "a line cannot carry both a debit and a credit"
		}
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}

	var count int64
	database.GetDB().Model(&model.Account{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Count(&count)
	if count != int64(len(ids)) {
		return "one or more accounts do not belong to this tenant"
	}
	return ""
}

// ledgerRows projects a journal entry's lines into ledger entries. Lines
// without a description inherit the entry memo.
func ledgerRows(entry model.JournalEntry) []model.LedgerEntry {
	rows := make([]model.LedgerEntry, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		description := line.Description
		if description == "" {
			description = entry.Memo
		}
		rows = append(rows, model.LedgerEntry{
			TenantID:       entry.TenantID,
			AccountID:      line.AccountID,
			Date:           entry.Date,
			Description:    description,
			Debit:          line.Debit,
			Credit:         line.Credit,
			SourceType:     model.SourceJournal,
			SourceID:       entry.ID,
			JournalEntryID: &entry.ID,
		})
	}
	return rows
}

// CreateJournalEntry creates a new journal entry and assigns it the next
// number of the tenant's journal sequence. With "post": true the entry is
// posted in the same transaction.
func CreateJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "create")

	var req JournalRequest
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

	date, err := parseDate(req.Date)
	if err != nil || date.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required in YYYY-MM-DD format"})
	}

	if msg := journalLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid journal lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	now := time.Now()
	entry := model.JournalEntry{
		TenantID:  tenantID,
		Date:      date,
		Memo:      req.Memo,
		Reference: req.Reference,
		Status:    model.JournalDraft,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if req.Post {
		entry.Status = model.JournalPosted
		entry.PostedAt = &now
		entry.PostedBy = &userID
	}
	for _, l := range req.Lines {
		entry.Lines = append(entry.Lines, model.JournalLine{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	number, err := nextDocumentNumber(tx, tenantID, "journal")
	if err != nil {
		tx.Rollback()
		log.Error("Failed to reserve journal number", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create journal entry"})
	}
	entry.Number = number

	if result := tx.Create(&entry); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create journal entry", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create journal entry"})
	}

	if req.Post {
		rows := ledgerRows(entry)
		if err := tx.Create(&rows).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to write ledger entries", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create journal entry"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	if req.Post {
		events.Emit(events.TopicJournal, events.JournalEvent{
			Event:       "journal.posted",
			TenantID:    entry.TenantID,
			EntryID:     entry.ID,
			Number:      entry.Number,
			Date:        entry.Date.Format(report.DateLayout),
			TotalDebit:  entry.TotalDebit(),
			TotalCredit: entry.TotalCredit(),
			OccurredAt:  now,
		})
		go updateJournalCount(tenantID)
	}

	log.Info("Journal entry created",
		zap.String("number", entry.Number),
		zap.Uint("entry_id", entry.ID),
		zap.String("status", entry.Status),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, entry)
}

// GetJournalEntry retrieves a single journal entry with its lines
func GetJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid journal entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid journal entry ID"})
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

	var entry model.JournalEntry
	result := database.GetDB().Preload("Lines").Where("id = ?", id).First(&entry)
	if result.Error != nil {
		log.Error("Journal entry not found", zap.Uint64("entry_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Journal entry not found"})
	}

	// Ensure the entry belongs to the tenant in the JWT token
	if entry.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access journal entry from different tenant",
			zap.Uint64("entry_id", id),
			zap.Uint("entry_tenant", entry.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this journal entry"})
	}

	return c.JSON(http.StatusOK, entry)
}

// journalListQuery applies the journal entry list filters. The page query
// and the count query each build their own chain; a chain that has run Find
// keeps its LIMIT and OFFSET.
func journalListQuery(c echo.Context, tenantID uint) (*gorm.DB, error) {
	from, to, err := parseDateRange(c)
	if err != nil {
		return nil, err
	}

	db := database.GetDB()
	query := db.Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if accountID := c.QueryParam("account_id"); accountID != "" {
		query = query.Where("id IN (?)", db.Model(&model.JournalLine{}).
			Select("journal_entry_id").
			Where("account_id = ?", accountID))
	}
	if !from.IsZero() {
		query = query.Where("date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", to)
	}
	return query, nil
}

// ListJournalEntries retrieves journal entries for the current tenant
func ListJournalEntries(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	query, err := journalListQuery(c, tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be in YYYY-MM-DD format"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var entries []model.JournalEntry
	result := query.
		Order("date desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&entries)

	if result.Error != nil {
		log.Error("Failed to retrieve journal entries",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve journal entries"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count runs
	// on a fresh chain
	var total int64
	countQuery, _ := journalListQuery(c, tenantID)
	countQuery.Model(&model.JournalEntry{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"journal_entries": entries,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateJournalEntry replaces the header fields and lines of a draft entry.
// Posted and void entries are immutable.
func UpdateJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid journal entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid journal entry ID"})
	}

	var req JournalRequest
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

	var entry model.JournalEntry
	result := database.GetDB().Where("id = ?", id).First(&entry)
	if result.Error != nil {
		log.Error("Journal entry not found for update", zap.Uint64("entry_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Journal entry not found"})
	}

	// Ensure the entry belongs to the tenant in the JWT token
	if entry.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update journal entry from different tenant",
			zap.Uint64("entry_id", id),
			zap.Uint("entry_tenant", entry.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this journal entry"})
	}

	if entry.Status != model.JournalDraft {
		log.Warn("Attempted to edit a non-draft journal entry",
			zap.Uint64("entry_id", id),
			zap.String("status", entry.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft entries can be edited"})
	}

	date, err := parseDate(req.Date)
	if err != nil || date.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required in YYYY-MM-DD format"})
	}

	if msg := journalLinesValid(tenantID, req.Lines); msg != "" {
		log.Warn("Invalid journal lines", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	entry.Date = date
	entry.Memo = req.Memo
	entry.Reference = req.Reference
	entry.UpdatedBy = userID

	if err := tx.Save(&entry).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update journal entry", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update journal entry"})
	}

	// Replace the lines wholesale
	if err := tx.Where("journal_entry_id = ?", entry.ID).Delete(&model.JournalLine{}).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to delete journal lines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update journal entry"})
	}

	lines := make([]model.JournalLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, model.JournalLine{
			JournalEntryID: entry.ID,
			AccountID:      l.AccountID,
			Description:    l.Description,
			Debit:          l.Debit,
			Credit:         l.Credit,
		})
	}
	if err := tx.Create(&lines).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to create journal lines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update journal entry"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	entry.Lines = lines
	log.Info("Journal entry updated",
		zap.Uint64("entry_id", id),
		zap.String("number", entry.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, entry)
}

// DeleteJournalEntry removes a draft journal entry (soft delete)
func DeleteJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid journal entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid journal entry ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var entry model.JournalEntry
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&entry)
	if preResult.Error != nil {
		log.Warn("Journal entry not found or does not belong to tenant",
			zap.Uint64("entry_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Journal entry not found"})
	}

	if entry.Status != model.JournalDraft {
		log.Warn("Attempted to delete a non-draft journal entry",
			zap.Uint64("entry_id", id),
			zap.String("status", entry.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft entries can be deleted; void posted entries instead"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&entry)
	if result.Error != nil {
		log.Error("Failed to delete journal entry",
			zap.Uint64("entry_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete journal entry"})
	}

	log.Info("Journal entry deleted",
		zap.Uint64("entry_id", id),
		zap.String("number", entry.Number),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Journal entry deleted successfully"})
}

// PostJournalEntry posts a draft entry: one ledger entry is written per line
// and the entry becomes immutable
func PostJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "post")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid journal entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid journal entry ID"})
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

	var entry model.JournalEntry
	result := database.GetDB().Preload("Lines").Where("id = ? AND tenant_id = ?", id, tenantID).First(&entry)
	if result.Error != nil {
		log.Warn("Journal entry not found or does not belong to tenant",
			zap.Uint64("entry_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Journal entry not found"})
	}

	if entry.Status != model.JournalDraft {
		log.Warn("Attempted to post a non-draft journal entry",
			zap.Uint64("entry_id", id),
			zap.String("status", entry.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only draft entries can be posted"})
	}

	if len(entry.Lines) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cannot post an entry without lines"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	now := time.Now()

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	entry.Status = model.JournalPosted
	entry.PostedAt = &now
	entry.PostedBy = &userID
	entry.UpdatedBy = userID
	if err := tx.Save(&entry).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update journal entry", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to post journal entry"})
	}

	// Write one ledger entry per line
	rows := ledgerRows(entry)
	if err := tx.Create(&rows).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to write ledger entries", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to post journal entry"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	events.Emit(events.TopicJournal, events.JournalEvent{
		Event:       "journal.posted",
		TenantID:    entry.TenantID,
		EntryID:     entry.ID,
		Number:      entry.Number,
		Date:        entry.Date.Format(report.DateLayout),
		TotalDebit:  entry.TotalDebit(),
		TotalCredit: entry.TotalCredit(),
		OccurredAt:  now,
	})

	go updateJournalCount(tenantID)

	log.Info("Journal entry posted",
		zap.String("number", entry.Number),
		zap.Uint("entry_id", entry.ID),
		zap.Int("lines", len(entry.Lines)),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, entry)
}

// VoidJournalEntry voids a posted entry and removes its ledger entries
func VoidJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("journal_entry", "void")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid journal entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid journal entry ID"})
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

	var entry model.JournalEntry
	result := database.GetDB().Preload("Lines").Where("id = ? AND tenant_id = ?", id, tenantID).First(&entry)
	if result.Error != nil {
		log.Warn("Journal entry not found or does not belong to tenant",
			zap.Uint64("entry_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Journal entry not found"})
	}

	if entry.Status != model.JournalPosted {
		log.Warn("Attempted to void a non-posted journal entry",
			zap.Uint64("entry_id", id),
			zap.String("status", entry.Status))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Only posted entries can be voided"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Remove the ledger entries written at post time
	if err := tx.Where("tenant_id = ? AND journal_entry_id = ?", tenantID, entry.ID).Delete(&model.LedgerEntry{}).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to remove ledger entries", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to void journal entry"})
	}

	entry.Status = model.JournalVoid
	entry.UpdatedBy = userID
	if err := tx.Save(&entry).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update journal entry", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to void journal entry"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	events.Emit(events.TopicJournal, events.JournalEvent{
		Event:       "journal.voided",
		TenantID:    entry.TenantID,
		EntryID:     entry.ID,
		Number:      entry.Number,
		Date:        entry.Date.Format(report.DateLayout),
		TotalDebit:  entry.TotalDebit(),
		TotalCredit: entry.TotalCredit(),
		OccurredAt:  time.Now(),
	})

	go updateJournalCount(tenantID)

	log.Info("Journal entry voided",
		zap.String("number", entry.Number),
		zap.Uint("entry_id", entry.ID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, entry)
}

// updateJournalCount refreshes the per-tenant posted journal gauge
func updateJournalCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.JournalEntry{}).Where("tenant_id = ? AND status = ?", tenantID, model.JournalPosted).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "journal_entry", count)
	}
}
