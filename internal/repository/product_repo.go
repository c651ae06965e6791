package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*model.Product, error)
	FindOnlineProductByID(ctx context.Context, id uuid.UUID) (*model.OnlineProduct, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	err := GetDB(ctx, r.db).
		Where("store_id = ? AND sku = ?", storeID, sku).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindOnlineProductByID(ctx context.Context, id uuid.UUID) (*model.OnlineProduct, error) {
	var onlineProduct model.OnlineProduct
	if err := GetDB(ctx, r.db).First(&onlineProduct, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &onlineProduct, nil
}
