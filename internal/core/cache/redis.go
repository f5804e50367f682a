package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"recipe-matcher/internal/pkg/common"
	"recipe-matcher/internal/pkg/metrics"
)

const storeRedis = "redis"

// RedisStore 以 Redis 儲存快取，過期交由 Redis TTL 處理
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore 建立 Redis 快取；client 由呼叫端建立並負責連線檢查
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "recipe-matcher:cache:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Get 取得快取
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		metrics.RecordCache(storeRedis, false)
		common.LogCacheResult(storeRedis, false)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	s.hits.Add(1)
	metrics.RecordCache(storeRedis, true)
	common.LogCacheResult(storeRedis, true)
	return data, nil
}

// Set 設定快取
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Stats 命中統計（容量由 Redis 管理）
func (s *RedisStore) Stats() Stats {
	hits, misses := s.hits.Load(), s.misses.Load()
	return Stats{
		Store:    storeRedis,
		Hits:     hits,
		Misses:   misses,
		HitRatio: hitRatio(hits, misses),
	}
}

// Close client 由 database 套件管理，這裡不關閉
func (s *RedisStore) Close() error {
	return nil
}
