package database

import (
	"posbackend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and migrates
// the schema.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&model.Store{},
		&model.OnlineStore{},
		&model.Product{},
		&model.OnlineProduct{},
		&model.PurchaseLot{},
		&model.InventoryRecord{},
		&model.ConversionLog{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockTransfer{},
		&model.StockTransferItem{},
		&model.DocumentSequence{},
		&model.User{},
		&model.AuditLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
