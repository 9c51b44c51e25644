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

// CustomerRequest defines the structure for customer creation/update requests
type CustomerRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TaxID         string `json:"tax_id"`
	Notes         string `json:"notes"`
	IsActive      *bool  `json:"is_active"`
}

// CreateCustomer creates a new customer for the current tenant
func CreateCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("customer", "create")

	var req CustomerRequest
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

	// Check if a customer with the same code exists in the same tenant
	var count int64
	database.GetDB().Model(&model.Customer{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("Customer with this code already exists for this tenant",
			zap.String("code", req.Code),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Customer with this code already exists for this tenant"})
	}

	// New customers are active unless the request says otherwise
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	customer := model.Customer{
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
		Notes:         req.Notes,
		IsActive:      isActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&customer); result.Error != nil {
		log.Error("Failed to create customer", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create customer"})
	}

	go updateCustomerCount(tenantID)

	log.Info("Customer created",
		zap.String("name", customer.Name),
		zap.String("code", customer.Code),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer retrieves a single customer by ID
func GetCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("customer", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid customer ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid customer ID"})
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

	var customer model.Customer
	result := database.GetDB().Where("id = ?", id).First(&customer)
	if result.Error != nil {
		log.Error("Customer not found", zap.Uint64("customer_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	// Ensure the customer belongs to the tenant in the JWT token
	if customer.TenantID != tenantID {
		log.Warn("Unauthorized attempt to access customer from different tenant",
			zap.Uint64("customer_id", id),
			zap.Uint("customer_tenant", customer.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to access this customer"})
	}

	return c.JSON(http.StatusOK, customer)
}

// customerListQuery applies the customer list filters. Each caller builds
// its own chain; a chain that has run Find keeps its LIMIT and OFFSET.
func customerListQuery(c echo.Context, tenantID uint) *gorm.DB {
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

// ListCustomers retrieves all customers for the current tenant
func ListCustomers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("customer", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	page, limit, offset := parsePagination(c)

	query := customerListQuery(c, tenantID)

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var customers []model.Customer
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&customers)

	if result.Error != nil {
		log.Error("Failed to retrieve customers",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve customers"})
	}

	// The Find above left its LIMIT and OFFSET on query, so the count runs
	// on a fresh chain
	var total int64
	customerListQuery(c, tenantID).Model(&model.Customer{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"customers": customers,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  totalPages(total, limit),
		},
	})
}

// UpdateCustomer updates an existing customer for the current tenant
func UpdateCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("customer", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid customer ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid customer ID"})
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint64("customer_id", id),
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

	// Find existing customer and validate tenant ownership
	var customer model.Customer
	result := database.GetDB().Where("id = ?", id).First(&customer)
	if result.Error != nil {
		log.Error("Customer not found for update",
			zap.Uint64("customer_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	// Ensure the customer belongs to the tenant in the JWT token
	if customer.TenantID != tenantID {
		log.Warn("Unauthorized attempt to update customer from different tenant",
			zap.Uint64("customer_id", id),
			zap.Uint("customer_tenant", customer.TenantID),
			zap.Uint("request_tenant", tenantID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to update this customer"})
	}

	// Check if code is changed and if the new code already exists within the same tenant
	if req.Code != customer.Code {
		var count int64
		database.GetDB().Model(&model.Customer{}).
			Where("code = ? AND id != ? AND tenant_id = ?", req.Code, id, tenantID).
			Count(&count)
		if count > 0 {
			log.Warn("Customer with this code already exists for this tenant",
				zap.String("code", req.Code),
				zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Customer with this code already exists for this tenant"})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	// Update customer fields
	customer.Name = req.Name
	customer.Code = req.Code
	customer.ContactPerson = req.ContactPerson
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.City = req.City
	customer.Country = req.Country
	customer.TaxID = req.TaxID
	customer.Notes = req.Notes
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	customer.UpdatedBy = userID
	// TenantID remains unchanged - can't change tenant ownership

	result = database.GetDB().Save(&customer)
	if result.Error != nil {
		log.Error("Failed to update customer",
			zap.Uint64("customer_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update customer"})
	}

	log.Info("Customer updated",
		zap.Uint64("customer_id", id),
		zap.String("name", customer.Name),
		zap.Uint("tenant_id", customer.TenantID))
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles deleting a customer (soft delete)
func DeleteCustomer(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("customer", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid customer ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid customer ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Get customer details before deleting and verify tenant ownership
	var customer model.Customer
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&customer)
	if preResult.Error != nil {
		log.Warn("Customer not found or does not belong to tenant",
			zap.Uint64("customer_id", id),
			zap.Uint("tenant_id", tenantID),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Perform soft delete
	result := database.GetDB().Delete(&customer)
	if result.Error != nil {
		log.Error("Failed to delete customer",
			zap.Uint64("customer_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete customer"})
	}

	go updateCustomerCount(tenantID)

	log.Info("Customer deleted",
		zap.Uint64("customer_id", id),
		zap.String("name", customer.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Customer deleted successfully"})
}

// updateCustomerCount refreshes the per-tenant customer gauge
func updateCustomerCount(tenantID uint) {
	var count int64
	if err := database.GetDB().Model(&model.Customer{}).Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&count).Error; err == nil {
		prometheus.UpdateDocumentsPerTenant(tenantID, "customer", count)
	}
}
