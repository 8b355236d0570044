package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pickup-route-service/internal/domain"
)

// RedisMatrixCache keeps computed matrices in Redis with an optional TTL.
// A zero TTL means entries never expire.
type RedisMatrixCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisMatrixCache(client *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{Client: client, TTL: ttl}
}

func redisKey(key string) string { return "matrix:" + key }

func (r *RedisMatrixCache) Get(ctx context.Context, key string) (*domain.Matrix, bool, error) {
	if r.Client == nil {
		return nil, false, errors.New("matrix cache: redis client is nil")
	}
	if key == "" {
		return nil, false, errors.New("get matrix cache: key must not be empty")
	}

	payload, err := r.Client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache: redis get: %w", err)
	}

	var m domain.Matrix
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, false, fmt.Errorf("get matrix cache: decode payload: %w", err)
	}

	return &m, true, nil
}

func (r *RedisMatrixCache) Put(ctx context.Context, key string, m *domain.Matrix) error {
	if r.Client == nil {
		return errors.New("matrix cache: redis client is nil")
	}
	if key == "" {
		return errors.New("insert matrix cache: key must not be empty")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("insert matrix cache: encode payload: %w", err)
	}

	if err := r.Client.Set(ctx, redisKey(key), payload, r.TTL).Err(); err != nil {
		return fmt.Errorf("insert matrix cache key=%q: %w", key, err)
	}

	return nil
}
