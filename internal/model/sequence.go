package model

import (
	"time"

	"github.com/google/uuid"
)

// Sequence scope constants
const (
	SequenceScopeOrder    = "order"
	SequenceScopeTransfer = "transfer"
)

// DocumentSequence is a monotonic counter per (scope, store, period) used to
// number orders and transfers. Incremented atomically with an upsert so two
// concurrent creations can never draw the same value.
type DocumentSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Scope     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_document_sequences_key" json:"scope"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_sequences_key" json:"store_id"`
	Period    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_document_sequences_key" json:"period"`
	Value     int64     `gorm:"type:bigint;default:0;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
