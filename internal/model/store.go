package model

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical location (warehouse/shop) owned by one tenant.
// All inventory and order operations are scoped to a store.
type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnlineStore is the storefront surface of a parent Store. Online orders
// arrive against an online store and are fulfilled from its parent.
type OnlineStore struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Store     *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
