package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item types.
const (
	ItemProduct = "product"
	ItemService = "service"
)

// Item is a product or service the tenant sells or buys. Invoice and bill
// lines may reference an item to default their description and price.
type Item struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	TenantID      uint            `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_item_code"`
	Code          string          `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_item_code"` // Unique per tenant
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Type          string          `json:"type" gorm:"type:varchar(20);not null;default:'product'"`
	SalePrice     decimal.Decimal `json:"sale_price" gorm:"type:decimal(20,4);default:0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(20,4);default:0"`
	IsActive      bool            `json:"is_active"`
	CreatedBy     uint            `json:"created_by" gorm:"index"`
	UpdatedBy     uint            `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}
