package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockTransfer records one completed cross-store movement. Immutable once
// written; the lot mutations it caused live in the purchase_lots table.
type StockTransfer struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferNumber     string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"transfer_number"`
	SourceStoreID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"source_store_id"`
	DestinationStoreID uuid.UUID           `gorm:"type:uuid;not null;index" json:"destination_store_id"`
	Note               string              `gorm:"type:text" json:"note"`
	Items              []StockTransferItem `gorm:"foreignKey:TransferID" json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// StockTransferItem is one cost tier of one product moved by a transfer.
// A single requested line may produce several rows when the FIFO deduction
// at the source spans lots with different unit costs.
type StockTransferItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transfer_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity   int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	CreatedAt  time.Time       `json:"created_at"`
}
