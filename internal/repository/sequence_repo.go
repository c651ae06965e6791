package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SequenceRepository interface {
	Next(ctx context.Context, scope string, storeID uuid.UUID, period string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next atomically increments and returns the counter for (scope, store,
// period). The upsert makes concurrent callers serialize on the counter row,
// so two orders created in the same instant still get distinct numbers.
func (r *sequenceRepository) Next(ctx context.Context, scope string, storeID uuid.UUID, period string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO document_sequences (id, scope, store_id, period, value, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, 1, now(), now())
		ON CONFLICT (scope, store_id, period)
		DO UPDATE SET value = document_sequences.value + 1, updated_at = now()
		RETURNING value
	`, scope, storeID, period).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
