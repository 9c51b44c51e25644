package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xadn01/finnepal/internal/model"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

var storageConfig *config.StorageConfig

// InitAttachmentHandler sets the storage configuration for file uploads
func InitAttachmentHandler(cfg *config.StorageConfig) {
	storageConfig = cfg
}

func validDocumentType(t string) bool {
	return t == model.DocumentInvoice || t == model.DocumentBill || t == model.DocumentJournal
}

// documentBelongsToTenant verifies the target document exists under the
// tenant before any attachment is accepted for it
func documentBelongsToTenant(docType string, docID uint64, tenantID uint) bool {
	var count int64
	query := database.GetDB()
	switch docType {
	case model.DocumentInvoice:
		query = query.Model(&model.Invoice{})
	case model.DocumentBill:
		query = query.Model(&model.Bill{})
	case model.DocumentJournal:
		query = query.Model(&model.JournalEntry{})
	default:
		return false
	}
	query.Where("id = ? AND tenant_id = ?", docID, tenantID).Count(&count)
	return count > 0
}

func attachmentPath(a model.Attachment) string {
	return filepath.Join(storageConfig.Dir, strconv.FormatUint(uint64(a.TenantID), 10), a.StoredName)
}

// UploadAttachment stores an uploaded file under the tenant's directory and
// records its metadata against an invoice, bill or journal entry
func UploadAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("attachment", "create")

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

	docType := c.FormValue("document_type")
	if !validDocumentType(docType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document_type must be one of invoice, bill, journal_entry"})
	}
	docID, err := strconv.ParseUint(c.FormValue("document_id"), 10, 32)
	if err != nil || docID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document_id is required"})
	}

	if !documentBelongsToTenant(docType, docID, tenantID) {
		log.Warn("Attachment target not found for tenant",
			zap.String("document_type", docType),
			zap.Uint64("document_id", docID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Document not found"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}

	maxBytes := int64(storageConfig.MaxUploadMB) * 1024 * 1024
	if file.Size > maxBytes {
		log.Warn("Upload exceeds size limit",
			zap.Int64("size", file.Size),
			zap.Int("limit_mb", storageConfig.MaxUploadMB))
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": fmt.Sprintf("file exceeds the %d MB upload limit", storageConfig.MaxUploadMB),
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store attachment"})
	}
	defer src.Close()

	dir := filepath.Join(storageConfig.Dir, strconv.FormatUint(uint64(tenantID), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("Failed to create attachment directory", zap.String("dir", dir), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store attachment"})
	}

	// Files are stored under a generated name so uploads can never collide
	// or traverse outside the tenant directory
	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(dir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		log.Error("Failed to create attachment file", zap.String("path", path), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store attachment"})
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		log.Error("Failed to write attachment file", zap.String("path", path), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store attachment"})
	}

	attachment := model.Attachment{
		TenantID:     tenantID,
		DocumentType: docType,
		DocumentID:   uint(docID),
		FileName:     filepath.Base(file.Filename),
		StoredName:   storedName,
		ContentType:  file.Header.Get(echo.HeaderContentType),
		SizeBytes:    written,
		UploadedBy:   userID,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&attachment); result.Error != nil {
		os.Remove(path)
		log.Error("Failed to record attachment", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to store attachment"})
	}

	log.Info("Attachment uploaded",
		zap.Uint("attachment_id", attachment.ID),
		zap.String("file_name", attachment.FileName),
		zap.Int64("size_bytes", written),
		zap.String("document_type", docType),
		zap.Uint64("document_id", docID),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, attachment)
}

// ListAttachments lists the attachments of one document
func ListAttachments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("attachment", "list")

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	docType := c.QueryParam("document_type")
	if !validDocumentType(docType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document_type must be one of invoice, bill, journal_entry"})
	}
	docID, err := strconv.ParseUint(c.QueryParam("document_id"), 10, 32)
	if err != nil || docID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document_id is required"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var attachments []model.Attachment
	result := database.GetDB().
		Where("tenant_id = ? AND document_type = ? AND document_id = ?", tenantID, docType, docID).
		Order("created_at desc").
		Find(&attachments)
	if result.Error != nil {
		log.Error("Failed to retrieve attachments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve attachments"})
	}

	return c.JSON(http.StatusOK, echo.Map{"attachments": attachments})
}

// DownloadAttachment streams the stored file back under its original name
func DownloadAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("attachment", "read")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid attachment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid attachment ID"})
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

	var attachment model.Attachment
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&attachment)
	if result.Error != nil {
		log.Warn("Attachment not found or does not belong to tenant",
			zap.Uint64("attachment_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Attachment not found"})
	}

	path := attachmentPath(attachment)
	if _, err := os.Stat(path); err != nil {
		log.Error("Attachment file missing from storage",
			zap.Uint("attachment_id", attachment.ID),
			zap.String("path", path),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Attachment file is missing"})
	}

	return c.Attachment(path, attachment.FileName)
}

// DeleteAttachment removes the metadata row and the stored file
func DeleteAttachment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDocumentOperation("attachment", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid attachment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid attachment ID"})
	}

	// Extract tenant ID from context (set by auth middleware)
	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var attachment model.Attachment
	preResult := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&attachment)
	if preResult.Error != nil {
		log.Warn("Attachment not found or does not belong to tenant",
			zap.Uint64("attachment_id", id),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Attachment not found"})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&attachment); result.Error != nil {
		log.Error("Failed to delete attachment",
			zap.Uint64("attachment_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete attachment"})
	}

	// Best effort; the metadata row is already gone
	if err := os.Remove(attachmentPath(attachment)); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove attachment file",
			zap.Uint("attachment_id", attachment.ID),
			zap.Error(err))
	}

	log.Info("Attachment deleted",
		zap.Uint("attachment_id", attachment.ID),
		zap.String("file_name", attachment.FileName),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Attachment deleted successfully"})
}
