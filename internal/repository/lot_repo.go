package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LotRepository interface {
	Create(ctx context.Context, lot *model.PurchaseLot) error
	Save(ctx context.Context, lot *model.PurchaseLot) error
	SumAvailable(ctx context.Context, productID, storeID uuid.UUID) (int, error)
	FindAvailableForUpdate(ctx context.Context, productID, storeID uuid.UUID) ([]model.PurchaseLot, error)
	FindLatestReceivedForUpdate(ctx context.Context, productID, storeID uuid.UUID) (*model.PurchaseLot, error)
	List(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.PurchaseLot, int64, error)
}

type lotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) LotRepository {
	return &lotRepository{db: db}
}

func (r *lotRepository) Create(ctx context.Context, lot *model.PurchaseLot) error {
	return GetDB(ctx, r.db).Create(lot).Error
}

func (r *lotRepository) Save(ctx context.Context, lot *model.PurchaseLot) error {
	return GetDB(ctx, r.db).Save(lot).Error
}

func (r *lotRepository) SumAvailable(ctx context.Context, productID, storeID uuid.UUID) (int, error) {
	var total int
	err := GetDB(ctx, r.db).Model(&model.PurchaseLot{}).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Where("product_id = ? AND store_id = ? AND remaining_quantity > 0", productID, storeID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FindAvailableForUpdate locks and returns all lots with stock in FIFO order:
// received_at ascending, ties broken by creation order. The row locks prevent
// two concurrent deductions from over-drawing the same lot.
func (r *lotRepository) FindAvailableForUpdate(ctx context.Context, productID, storeID uuid.UUID) ([]model.PurchaseLot, error) {
	var lots []model.PurchaseLot
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND store_id = ? AND remaining_quantity > 0", productID, storeID).
		Order("received_at ASC, created_at ASC, id ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// FindLatestReceivedForUpdate locks and returns the most recently received
// lot for the product/store regardless of remaining quantity.
func (r *lotRepository) FindLatestReceivedForUpdate(ctx context.Context, productID, storeID uuid.UUID) (*model.PurchaseLot, error) {
	var lot model.PurchaseLot
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND store_id = ?", productID, storeID).
		Order("received_at DESC, created_at DESC, id DESC").
		First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *lotRepository) List(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.PurchaseLot, int64, error) {
	var lots []model.PurchaseLot
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PurchaseLot{}).
		Where("product_id = ? AND store_id = ?", productID, storeID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("received_at ASC, created_at ASC").Offset(offset).Limit(limit).Find(&lots).Error; err != nil {
		return nil, 0, err
	}

	return lots, total, nil
}
