package fixtures

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore resets a Redis database with FLUSHDB. Only the database selected in the client
// options is affected.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a RedisStore with its own client.
func NewRedisStore(options *redis.Options) *RedisStore {
	return &RedisStore{redis: redis.NewClient(options)}
}

func (r *RedisStore) Name() string {
	opts := r.redis.Options()
	return fmt.Sprintf("redis://%s/%d", opts.Addr, opts.DB)
}

func (r *RedisStore) Reset(ctx context.Context) error {
	return r.redis.FlushDB(ctx).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.redis.Close()
}
