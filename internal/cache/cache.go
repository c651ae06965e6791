package cache

import (
	"context"
	"time"
)

// AvailabilityCache caches the FIFO-available quantity for a product/store
// pair. It only backs the read-only availability endpoint; transactional
// paths always read the database directly.
type AvailabilityCache interface {
	Get(ctx context.Context, productID, storeID string) (int, bool, error)
	Set(ctx context.Context, productID, storeID string, quantity int, ttl time.Duration) error
	Invalidate(ctx context.Context, productID, storeID string) error
}

// NoopAvailabilityCache is used when Redis is not configured.
type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(_ context.Context, _, _ string) (int, bool, error) {
	return 0, false, nil
}

func (NoopAvailabilityCache) Set(_ context.Context, _, _ string, _ int, _ time.Duration) error {
	return nil
}

func (NoopAvailabilityCache) Invalidate(_ context.Context, _, _ string) error {
	return nil
}
