package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	CreateItem(ctx context.Context, item *model.StockTransferItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	List(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Omit("Items").Create(transfer).Error
}

func (r *transferRepository) CreateItem(ctx context.Context, item *model.StockTransferItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *transferRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	err := GetDB(ctx, r.db).Preload("Items").First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// List returns transfers where the store is either side of the movement.
func (r *transferRepository) List(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error) {
	var transfers []model.StockTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransfer{}).
		Where("source_store_id = ? OR destination_store_id = ?", storeID, storeID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
