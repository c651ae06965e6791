package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisAvailabilityCache struct {
	client *redis.Client
}

func NewRedisAvailabilityCache(addr string, password string, db int) *RedisAvailabilityCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAvailabilityCache{client: client}
}

func (c *RedisAvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAvailabilityCache) Close() error {
	return c.client.Close()
}

func availabilityKey(productID, storeID string) string {
	return "availability:" + storeID + ":" + productID
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, productID, storeID string) (int, bool, error) {
	val, err := c.client.Get(ctx, availabilityKey(productID, storeID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	quantity, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return quantity, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, productID, storeID string, quantity int, ttl time.Duration) error {
	return c.client.Set(ctx, availabilityKey(productID, storeID), strconv.Itoa(quantity), ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, productID, storeID string) error {
	return c.client.Del(ctx, availabilityKey(productID, storeID)).Err()
}
