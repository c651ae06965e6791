package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Find(ctx context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error)
	FindForUpdate(ctx context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error)
	Create(ctx context.Context, record *model.InventoryRecord) error
	Save(ctx context.Context, record *model.InventoryRecord) error
	CreateLog(ctx context.Context, entry *model.ConversionLog) error
	ListLogs(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.ConversionLog, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Find(ctx context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	err := GetDB(ctx, r.db).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) FindForUpdate(ctx context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) Create(ctx context.Context, record *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *inventoryRepository) Save(ctx context.Context, record *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *inventoryRepository) CreateLog(ctx context.Context, entry *model.ConversionLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *inventoryRepository) ListLogs(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.ConversionLog, int64, error) {
	var logs []model.ConversionLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ConversionLog{}).
		Where("product_id = ? AND store_id = ?", productID, storeID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
