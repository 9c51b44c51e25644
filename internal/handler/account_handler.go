package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/internal/report"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// AccountRequest defines the structure for account creation/update requests
type AccountRequest struct {
	Code        string            `json:"code" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Type        model.AccountType `json:"type" validate:"required"`
	Description string            `json:"description"`
	IsCash      bool              `json:"is_cash"`
	IsActive    *bool             `json:"is_active"`
}

// CreateAccount creates a new ledger account for the current tenant
func CreateAccount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "create")

	var req AccountRequest
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

	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
	}

	if !model.ValidAccountType(req.Type) {
		log.Warn("Invalid account type", zap.String("type", string(req.Type)))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be one of ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE"})
	}

	// Check if an account with the same code exists in the same tenant
	var count int64
	database.GetDB().Model(&model.Account{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("Account with this code already exists for this tenant",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Account with this code already exists for this tenant"})
	}

	// New accounts are active unless the request says otherwise
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	account := model.Account{
		TenantID:    tenantID,
		Code:        req.Code,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		IsCash:      req.IsCash,
		IsActive:    isActive,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&account); result.Error != nil {
		log.Error("Failed to create account", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create account"})
	}

	go updateAccountCount(tenantID)

	log.Info("Account created",
		zap.String("code", account.Code),
		zap.String("name", account.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves a single account by ID
func GetAccount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "read")

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

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var account model.Account
	result := database.GetDB().Where("id = ?", id).First(&account)
	if result.Error != nil {
		log.Error("Account not found", zap.Uint64("account_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	// Ensure the account belongs to the tenant in the JWT token
	if account.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access account from different tenant",
			zap.Uint64("account_id", id),
			zap.Uint("account_tenant", account.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this account"})
	}

	return c.JSON(http.StatusOK, account)
}

// accountListQuery applies the account list filters. Each caller builds its
// own chain; a chain that has run Find keeps its LIMIT and OFFSET.
func accountListQuery(c echo.Context, tenantID uint) *gorm.DB {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if accountType := c.QueryParam("type"); accountType != "" {
		query = query.Where("type = ?", accountType)
	}
	if isActive := c.QueryParam("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	return query
}

// ListAccounts retrieves the chart of accounts for the current tenant
func ListAccounts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	if accountType := c.QueryParam("type"); accountType != "" {
		if !model.ValidAccountType(model.AccountType(accountType)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account type"})
		}
	}

	query := accountListQuery(c, tenantID)

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var accounts []model.Account
	result := query.
		Order("code asc").
		Limit(limit).
		Offset(offset).
		Find(&accounts)

	if result.Error != nil {
		log.Error("Failed to retrieve accounts",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve accounts"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count runs
	// on a fresh chain
	var total int64
	accountListQuery(c, tenantID).Model(&model.Account{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"accounts": accounts,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateAccount updates an existing account for the current tenant
func UpdateAccount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid account ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid account ID"})
	}

	var req AccountRequest
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

	if !model.ValidAccountType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be one of ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE"})
	}

	var account model.Account
	result := database.GetDB().Where("id = ?", id).First(&account)
	if result.Error != nil {
		log.Error("Account not found for update", zap.Uint64("account_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	// Ensure the account belongs to the tenant in the JWT token
	if account.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update account from different tenant",
			zap.Uint64("account_id", id),
			zap.Uint("account_tenant", account.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this account"})
	}

	// Check if code is changed and if the new code already exists within the same tenant
	if req.Code != account.Code {
		var count int64
		database.GetDB().Model(&model.Account{}).
			Where("code = ? AND id != ? AND tenant_id = ?", req.Code, id, tenantID).
			Count(&count)
		if count > 0 {
			log.Warn("Account with this code already exists for this tenant",
				zap.String("code", req.Code),
				zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Account with this code already exists for this tenant"})
		}
	}

	// Changing the type of an account that already has ledger activity would
	// silently rewrite history in every report
	if req.Type != account.Type {
		var entries int64
		database.GetDB().Model(&model.LedgerEntry{}).
			Where("account_id = ? AND tenant_id = ?", id, tenantID).
			Count(&entries)
		if entries > 0 {
			log.Warn("Attempted type change on account with ledger entries",
				zap.Uint64("account_id", id),
				zap.Int64("entries", entries))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Cannot change the type of an account with ledger entries"})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	account.Code = req.Code
	account.Name = req.Name
	account.Type = req.Type
	account.Description = req.Description
	account.IsCash = req.IsCash
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	account.UpdatedBy = userID
	// TenantID remains unchanged - can't change tenant ownership

	result = database.GetDB().Save(&account)
	if result.Error != nil {
		log.Error("Failed to update account",
			zap.Uint64("account_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update account"})
	}

	go updateAccountCount(tenantID)

	log.Info("Account updated",
		zap.Uint64("account_id", id),
		zap.String("code", account.Code),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, account)
}

// DeleteAccount handles deleting an account (soft delete). Accounts that have
// ledger entries cannot be deleted; deactivate them instead.
func DeleteAccount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "delete")

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

	var account model.Account
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&account)
	if preResult.Error != nil {
		log.Warn("Account not found or does not belong to tenant",
			zap.Uint64("account_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	// An account with ledger history must stay resolvable for the reports
	var entries int64
	database.GetDB().Model(&model.LedgerEntry{}).
		Where("account_id = ? AND tenant_id = ?", id, tenantID).
		Count(&entries)
	if entries > 0 {
		log.Warn("Attempted to delete account with ledger entries",
			zap.Uint64("account_id", id),
			zap.Int64("entries", entries))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Account has ledger entries; deactivate it instead"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&account)
	if result.Error != nil {
		log.Error("Failed to delete account",
			zap.Uint64("account_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete account"})
	}

	go updateAccountCount(tenantID)

	log.Info("Account deleted",
		zap.Uint64("account_id", id),
		zap.String("code", account.Code),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Account deleted successfully"})
}

// GetAccountLedger returns the running-balance ledger of one account,
// optionally restricted to a date range.
func GetAccountLedger(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("account", "ledger")

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
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&account)
	if result.Error != nil {
		log.Error("Account not found", zap.Uint64("account_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
	}

	var entries []model.LedgerEntry
	if result := database.GetDB().
		Where("tenant_id = ? AND account_id = ?", tenantID, id).
		Find(&entries); result.Error != nil {
		log.Error("Failed to retrieve ledger entries", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve ledger entries"})
	}

	ledger := report.BuildAccountLedger(account, entries, from, to)

	log.Info("Account ledger built",
		zap.Uint64("account_id", id),
		zap.Int("lines", len(ledger.Lines)),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, ledger)
}

// updateAccountCount refreshes the per-tenant account gauge
func updateAccountCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Account{}).Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "account", count)
	}
}
