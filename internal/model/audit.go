package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action constants
const (
	ActionCreateOrder       = "CREATE_ORDER"
	ActionOrderStatusChange = "ORDER_STATUS_CHANGE"
	ActionPaymentUpdate     = "PAYMENT_UPDATE"
	ActionStockDeduct       = "STOCK_DEDUCT"
	ActionStockRestore      = "STOCK_RESTORE"
	ActionStockAdjust       = "STOCK_ADJUST"
	ActionReceiveLot        = "RECEIVE_LOT"
	ActionTransferStock     = "TRANSFER_STOCK"
	ActionCreateUser        = "CREATE_USER"
)

// AuditLog records who did what to which entity. Details carries a JSON
// snapshot of the request.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(100);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `json:"created_at"`
}
