package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles short-lived JSON caching in Redis. Used for the admin
// dashboard aggregates, which are expensive to recompute per request.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// StatsCacheTTL bounds how stale the admin dashboard aggregates may be.
const StatsCacheTTL = 30 * time.Second

const statsCachePrefix = "cache:stats:"

// GetJSON retrieves a cached value into dest. Returns false on cache miss.
func (s *CacheStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, statsCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores a value in cache with the given TTL.
func (s *CacheStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statsCachePrefix+key, data, ttl).Err()
}

// InvalidateStats drops a cached aggregate after a write that changes it.
func (s *CacheStore) InvalidateStats(ctx context.Context, key string) error {
	return s.client.Del(ctx, statsCachePrefix+key).Err()
}
