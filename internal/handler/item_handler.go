package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// ItemRequest defines the structure for item creation/update requests
type ItemRequest struct {
	Code          string          `json:"code" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	IsActive      *bool           `json:"is_active"`
}

// CreateItem creates a new item for the current tenant
func CreateItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("item", "create")

	var req ItemRequest
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

	if req.Type == "" {
		req.Type = model.ItemProduct
	}
	if req.Type != model.ItemProduct && req.Type != model.ItemService {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be product or service"})
	}

	if req.SalePrice.IsNegative() || req.PurchasePrice.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices cannot be negative"})
	}

	// Check if an item with the same code exists in the same tenant
	var count int64
	database.GetDB().Model(&model.Item{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("Item with this code already exists for this tenant",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Item with this code already exists for this tenant"})
	}

	// New items are active unless the request says otherwise
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item := model.Item{
		TenantID:      tenantID,
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
		IsActive:      isActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&item); result.Error != nil {
		log.Error("Failed to create item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create item"})
	}

	go updateItemCount(tenantID)

	log.Info("Item created",
		zap.String("code", item.Code),
		zap.String("name", item.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, item)
}

// GetItem retrieves a single item by ID
func GetItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("item", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item ID"})
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

	var item model.Item
	result := database.GetDB().Where("id = ?", id).First(&item)
	if result.Error != nil {
		log.Error("Item not found", zap.Uint64("item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
	}

	// Ensure the item belongs to the tenant in the JWT token
	if item.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access item from different tenant",
			zap.Uint64("item_id", id),
			zap.Uint("item_tenant", item.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this item"})
	}

	return c.JSON(http.StatusOK, item)
}

// itemListQuery applies the item list filters. Each caller builds its own
// chain; a chain that has run Find keeps its LIMIT and OFFSET.
func itemListQuery(c echo.Context, tenantID uint) *gorm.DB {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if itemType := c.QueryParam("type"); itemType != "" {
		query = query.Where("type = ?", itemType)
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

// ListItems retrieves all items for the current tenant
func ListItems(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("item", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	if itemType := c.QueryParam("type"); itemType != "" {
		if itemType != model.ItemProduct && itemType != model.ItemService {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be product or service"})
		}
	}

	query := itemListQuery(c, tenantID)

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var items []model.Item
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&items)

	if result.Error != nil {
		log.Error("Failed to retrieve items",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve items"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count runs
	// on a fresh chain
	var total int64
	itemListQuery(c, tenantID).Model(&model.Item{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateItem updates an existing item for the current tenant
func UpdateItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("item", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item ID"})
	}

	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("item_id", id),
			zap.Error(err))
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

	if req.Type != "" && req.Type != model.ItemProduct && req.Type != model.ItemService {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be product or service"})
	}

	if req.SalePrice.IsNegative() || req.PurchasePrice.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices cannot be negative"})
	}

	// Find existing item and validate tenant ownership
	var item model.Item
	result := database.GetDB().Where("id = ?", id).First(&item)
	if result.Error != nil {
		log.Error("Item not found for update",
			zap.Uint64("item_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
	}

	// Ensure the item belongs to the tenant in the JWT token
	if item.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update item from different tenant",
			zap.Uint64("item_id", id),
			zap.Uint("item_tenant", item.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this item"})
	}

	// Check if code is changed and if the new code already exists within the same tenant
	if req.Code != item.Code {
		var count int64
		database.GetDB().Model(&model.Item{}).
			Where("code = ? AND id != ? AND tenant_id = ?", req.Code, id, tenantID).
			Count(&count)
		if count > 0 {
			log.Warn("Item with this code already exists for this tenant",
				zap.String("code", req.Code),
				zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Item with this code already exists for this tenant"})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	// Update item fields
	item.Code = req.Code
	item.Name = req.Name
	item.Description = req.Description
	if req.Type != "" {
		item.Type = req.Type
	}
	item.SalePrice = req.SalePrice
	item.PurchasePrice = req.PurchasePrice
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedBy = userID
	// TenantID remains unchanged - can't change tenant ownership

	result = database.GetDB().Save(&item)
	if result.Error != nil {
		log.Error("Failed to update item",
			zap.Uint64("item_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update item"})
	}

	log.Info("Item updated",
		zap.Uint64("item_id", id),
		zap.String("name", item.Name),
		zap.Uint("tenant_id", item.TenantID))
	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles deleting an item (soft delete)
func DeleteItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("item", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid item ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid item ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Get item details before deleting and verify tenant ownership
	var item model.Item
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&item)
	if preResult.Error != nil {
		log.Warn("Item not found or does not belong to tenant",
			zap.Uint64("item_id", id),
			zap.Uint("tenant_id", tenantID),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Item not found"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Perform soft delete
	result := database.GetDB().Delete(&item)
	if result.Error != nil {
		log.Error("Failed to delete item",
			zap.Uint64("item_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete item"})
	}

	go updateItemCount(tenantID)

	log.Info("Item deleted",
		zap.Uint64("item_id", id),
		zap.String("name", item.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Item deleted successfully"})
}

// updateItemCount refreshes the per-tenant item gauge
func updateItemCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Item{}).Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "item", count)
	}
}
