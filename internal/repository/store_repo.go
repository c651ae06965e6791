package repository

import (
	"context"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	FindOnlineStoreByID(ctx context.Context, id uuid.UUID) (*model.OnlineStore, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindOnlineStoreByID(ctx context.Context, id uuid.UUID) (*model.OnlineStore, error) {
	var onlineStore model.OnlineStore
	if err := GetDB(ctx, r.db).First(&onlineStore, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &onlineStore, nil
}
