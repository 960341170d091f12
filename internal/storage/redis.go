package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/listing-scraper/pkg/utils"
)

// RedisStore remembers which keywords were crawled recently.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func crawledKey(key string) string {
	return fmt.Sprintf("crawled:%s", utils.HashKey(key))
}

// MarkAsCrawled sets a key with a TTL to prevent re-crawling.
func (s *RedisStore) MarkAsCrawled(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, crawledKey(key), "1", ttl).Err()
}

// IsRecentlyCrawled checks if a keyword has been crawled within the TTL.
func (s *RedisStore) IsRecentlyCrawled(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, crawledKey(key)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
