package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the physical catalog entry tracked by the inventory ledger.
// BaseUnit is the smallest sellable unit; ConversionUnit is the bulk unit
// used by the POS path (e.g. base "pcs", conversion "box").
type Product struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_store_sku" json:"store_id"`
	SKU            string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_store_sku" json:"sku"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	BaseUnit       string          `gorm:"type:varchar(50);default:'pcs';not null" json:"base_unit"`
	ConversionUnit string          `gorm:"type:varchar(50)" json:"conversion_unit"`
	ConversionRate int             `gorm:"type:int;default:1;not null" json:"conversion_rate"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OnlineProduct is a storefront listing backed by a physical Product.
// Name/SKU/price here are the storefront-facing values snapshotted into
// order items at creation time.
type OnlineProduct struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OnlineStoreID uuid.UUID       `gorm:"type:uuid;not null;index" json:"online_store_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU           string          `gorm:"type:varchar(100);not null" json:"sku"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
