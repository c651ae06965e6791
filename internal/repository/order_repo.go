package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItem(ctx context.Context, item *model.OrderItem) error
	FindByIDWithItems(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	Save(ctx context.Context, order *model.Order) error
	List(ctx context.Context, storeID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := GetDB(ctx, r.db).
		Preload("Items").
		Where("id = ? AND store_id = ?", id, storeID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the duration of the transaction.
// Items are not preloaded here; FOR UPDATE does not mix with joined preloads.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Items").Save(order).Error
}

func (r *orderRepository) List(ctx context.Context, storeID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{}).Where("store_id = ?", storeID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
