package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseLot is one received batch of stock for a (product, store) pair.
// ReceivedAt defines FIFO order; RemainingQuantity is the only mutable
// field and is owned exclusively by the lot ledger. Lots are never deleted:
// a lot with RemainingQuantity 0 stays around as a historical cost record.
type PurchaseLot struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_product_store" json:"product_id"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_product_store" json:"store_id"`
	InitialQuantity   int             `gorm:"type:int;not null" json:"initial_quantity"`
	RemainingQuantity int             `gorm:"type:int;not null;check:remaining_quantity >= 0" json:"remaining_quantity"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	Unit              string          `gorm:"type:varchar(50);default:'pcs';not null" json:"unit"`
	ReceivedAt        time.Time       `gorm:"not null;index" json:"received_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
