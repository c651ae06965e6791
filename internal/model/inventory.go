package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversionLog type constants
const (
	ConversionTypeAutoDeduct   = "auto_deduct"
	ConversionTypeManualAdjust = "manual_adjust"
)

// InventoryRecord is the aggregate per-(product, store) stock row used by
// the POS sales path. It tracks quantities in both units of the product and
// is created lazily on first access. Both stock fields stay >= 0 at rest.
type InventoryRecord struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_store" json:"product_id"`
	StoreID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_store" json:"store_id"`
	ConversionUnitStock int       `gorm:"type:int;default:0;not null;check:conversion_unit_stock >= 0" json:"conversion_unit_stock"`
	BaseUnitStock       int       `gorm:"type:int;default:0;not null;check:base_unit_stock >= 0" json:"base_unit_stock"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ConversionLog is an append-only audit row written for every mutation of an
// InventoryRecord. Never updated or deleted.
type ConversionLog struct {
	ID                   uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InventoryRecordID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"inventory_record_id"`
	ProductID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	StoreID              uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	Type                 string     `gorm:"type:varchar(20);not null" json:"type"` // auto_deduct, manual_adjust
	Unit                 string     `gorm:"type:varchar(50)" json:"unit"`
	Quantity             int        `gorm:"type:int;not null" json:"quantity"`
	ConversionUnitBefore int        `gorm:"type:int;not null" json:"conversion_unit_before"`
	ConversionUnitAfter  int        `gorm:"type:int;not null" json:"conversion_unit_after"`
	BaseUnitBefore       int        `gorm:"type:int;not null" json:"base_unit_before"`
	BaseUnitAfter        int        `gorm:"type:int;not null" json:"base_unit_after"`
	SaleID               *uuid.UUID `gorm:"type:uuid;index" json:"sale_id"` // originating POS sale, if any
	Notes                string     `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time  `json:"created_at"`
}
