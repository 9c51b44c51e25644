package model

import (
	"time"

	"gorm.io/gorm"
)

// Attachment is a file (receipt, scanned bill, contract) stored against a
// document. The file itself lives on disk under the storage directory as
// <tenant_id>/<stored_name>; only the metadata is kept in the database.
type Attachment struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null"`
	DocumentType string         `json:"document_type" gorm:"type:varchar(20);not null;index:idx_attachment_document"`
	DocumentID   uint           `json:"document_id" gorm:"not null;index:idx_attachment_document"`
	FileName     string         `json:"file_name" gorm:"type:varchar(255);not null"`
	StoredName   string         `json:"-" gorm:"type:varchar(100);not null"` // uuid + original extension
	ContentType  string         `json:"content_type" gorm:"type:varchar(100)"`
	SizeBytes    int64          `json:"size_bytes"`
	UploadedBy   uint           `json:"uploaded_by" gorm:"index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
