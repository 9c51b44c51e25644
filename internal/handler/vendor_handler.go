package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

// VendorRequest defines the structure for vendor creation/update requests
type VendorRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TaxID         string `json:"tax_id"`
	PaymentTerms  string `json:"payment_terms"`
	Notes         string `json:"notes"`
	IsActive      *bool  `json:"is_active"`
	Rating        int    `json:"rating"`
}

// CreateVendor creates a new vendor for the current tenant
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("vendor", "create")

	var req VendorRequest
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

	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code are required"})
	}

	// Check if a vendor with the same code exists in the same tenant
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor with this code already exists for this tenant",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Vendor with this code already exists for this tenant"})
	}

	// New vendors are active unless the request says otherwise
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	vendor := model.Vendor{
		TenantID:      tenantID,
		Name:          req.Name,
		Code:          req.Code,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		TaxID:         req.TaxID,
		PaymentTerms:  req.PaymentTerms,
		Notes:         req.Notes,
		IsActive:      isActive,
		Rating:        req.Rating,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&vendor); result.Error != nil {
		log.Error("Failed to create vendor", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create vendor"})
	}

	go updateVendorCount(tenantID)

	log.Info("Vendor created",
		zap.String("name", vendor.Name),
		zap.String("code", vendor.Code),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, vendor)
}

// GetVendor retrieves a single vendor by ID
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("vendor", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
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

	var vendor model.Vendor
	result := database.GetDB().Where("id = ?", id).First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	// Ensure the vendor belongs to the tenant in the JWT token
	if vendor.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access vendor from different tenant",
			zap.Uint64("vendor_id", id),
			zap.Uint("vendor_tenant", vendor.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this vendor"})
	}

	return c.JSON(http.StatusOK, vendor)
}

// vendorListQuery applies the vendor list filters. Each caller builds its
// own chain; a chain that has run Find keeps its LIMIT and OFFSET.
func vendorListQuery(c echo.Context, tenantID uint) *gorm.DB {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID)
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

// ListVendors retrieves all vendors for the current tenant
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("vendor", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	query := vendorListQuery(c, tenantID)

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&vendors)

	if result.Error != nil {
		log.Error("Failed to retrieve vendors",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve vendors"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count runs
	// on a fresh chain
	var total int64
	vendorListQuery(c, tenantID).Model(&model.Vendor{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateVendor updates an existing vendor for the current tenant
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("vendor", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("vendor_id", id),
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

	// Find existing vendor and validate tenant ownership
	var vendor model.Vendor
	result := database.GetDB().Where("id = ?", id).First(&vendor)
	if result.Error != nil {
		log.Error("Vendor not found for update",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	// Ensure the vendor belongs to the tenant in the JWT token
	if vendor.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update vendor from different tenant",
			zap.Uint64("vendor_id", id),
			zap.Uint("vendor_tenant", vendor.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this vendor"})
	}

	// Check if code is changed and if the new code already exists within the same tenant
	if req.Code != vendor.Code {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("code = ? AND id != ? AND tenant_id = ?", req.Code, id, tenantID).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this code already exists for this tenant",
				zap.String("code", req.Code),
				zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Vendor with this code already exists for this tenant"})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	// Update vendor fields
	vendor.Name = req.Name
	vendor.Code = req.Code
	vendor.ContactPerson = req.ContactPerson
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.Address = req.Address
	vendor.City = req.City
	vendor.Country = req.Country
	vendor.TaxID = req.TaxID
	vendor.PaymentTerms = req.PaymentTerms
	vendor.Notes = req.Notes
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}
	vendor.Rating = req.Rating
	vendor.UpdatedBy = userID
	// TenantID remains unchanged - can't change tenant ownership

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update vendor"})
	}

	log.Info("Vendor updated",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name),
		zap.Uint("tenant_id", vendor.TenantID))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor handles deleting a vendor (soft delete)
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("vendor", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Get vendor details before deleting and verify tenant ownership
	var vendor model.Vendor
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&vendor)
	if preResult.Error != nil {
		log.Warn("Vendor not found or does not belong to tenant",
			zap.Uint64("vendor_id", id),
			zap.Uint("tenant_id", tenantID),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Perform soft delete
	result := database.GetDB().Delete(&vendor)
	if result.Error != nil {
		log.Error("Failed to delete vendor",
			zap.Uint64("vendor_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete vendor"})
	}

	go updateVendorCount(tenantID)

	log.Info("Vendor deleted",
		zap.Uint64("vendor_id", id),
		zap.String("name", vendor.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Vendor deleted successfully"})
}

// updateVendorCount refreshes the per-tenant vendor gauge
func updateVendorCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Vendor{}).Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "vendor", count)
	}
}
